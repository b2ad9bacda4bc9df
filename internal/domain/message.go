package domain

import "fmt"

// Rank addresses one process of a run. The coordinator is always rank 0.
type Rank int

const (
	// AnySource matches a message from any sender.
	AnySource Rank = -1

	CoordinatorRank Rank = 0
)

// Tag discriminates the role of a message.
type Tag uint8

const (
	TagFirstRequest Tag = iota + 1
	TagRepeatRequest
	TagWork
	TagTerminate
	TagTerminateAck

	// TagBroadcast is reserved for transports that implement Broadcast on
	// top of point-to-point delivery.
	TagBroadcast
)

func (t Tag) String() string {
	switch t {
	case TagFirstRequest:
		return "first-request"
	case TagRepeatRequest:
		return "repeat-request"
	case TagWork:
		return "work"
	case TagTerminate:
		return "terminate"
	case TagTerminateAck:
		return "terminate-ack"
	case TagBroadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	return t >= TagFirstRequest && t <= TagBroadcast
}

// Message is a single delivery between two ranks.
type Message struct {
	Source  Rank
	Tag     Tag
	Payload []uint32
}

// Matches reports whether m satisfies a receive filter. An empty tag set
// accepts every tag.
func (m Message) Matches(from Rank, tags []Tag) bool {
	if from != AnySource && m.Source != from {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if m.Tag == t {
			return true
		}
	}
	return false
}
