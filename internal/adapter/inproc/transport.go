// Package inproc runs every rank of a cluster inside one OS process. Ranks
// share nothing except their mailboxes; payloads are copied on Send.
package inproc

import (
	"context"
	"fmt"
	"slices"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/mailbox"
	"gitlab.com/nqueens.net/internal/static/errs"
)

var _ primary.Transport = (*Endpoint)(nil)

// Endpoint is the transport of one rank.
type Endpoint struct {
	rank  domain.Rank
	boxes []*mailbox.Mailbox
}

// NewCluster returns one endpoint per rank, indexed by rank.
func NewCluster(size int) []*Endpoint {
	boxes := make([]*mailbox.Mailbox, size)
	for i := range boxes {
		boxes[i] = mailbox.New()
	}

	endpoints := make([]*Endpoint, size)
	for i := range endpoints {
		endpoints[i] = &Endpoint{rank: domain.Rank(i), boxes: boxes}
	}
	return endpoints
}

func (e *Endpoint) Rank() domain.Rank {
	return e.rank
}

func (e *Endpoint) Size() int {
	return len(e.boxes)
}

// Broadcast sends values from root to every other rank under TagBroadcast.
func (e *Endpoint) Broadcast(ctx context.Context, root domain.Rank, values []uint32) ([]uint32, error) {
	if !e.valid(root) {
		return nil, fmt.Errorf("%w: broadcast root %d", errs.UnknownRank, root)
	}
	if e.rank != root {
		msg, err := e.Recv(ctx, root, domain.TagBroadcast)
		if err != nil {
			return nil, fmt.Errorf("failed to receive broadcast: %w", err)
		}
		return msg.Payload, nil
	}

	for r := range e.boxes {
		if domain.Rank(r) == root {
			continue
		}
		if err := e.Send(ctx, domain.Rank(r), domain.TagBroadcast, values); err != nil {
			return nil, fmt.Errorf("failed to broadcast to rank %d: %w", r, err)
		}
	}
	return slices.Clone(values), nil
}

// Send queues a copy of values in dest's mailbox. It never blocks.
func (e *Endpoint) Send(ctx context.Context, dest domain.Rank, tag domain.Tag, values []uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.valid(dest) {
		return fmt.Errorf("%w: %d", errs.UnknownRank, dest)
	}

	payload := make([]uint32, len(values))
	copy(payload, values)

	if !e.boxes[dest].Put(domain.Message{Source: e.rank, Tag: tag, Payload: payload}) {
		return fmt.Errorf("rank %d: %w", dest, errs.TransportClosed)
	}
	return nil
}

func (e *Endpoint) Recv(ctx context.Context, from domain.Rank, tags ...domain.Tag) (domain.Message, error) {
	if from != domain.AnySource && !e.valid(from) {
		return domain.Message{}, fmt.Errorf("%w: %d", errs.UnknownRank, from)
	}
	return e.boxes[e.rank].Take(ctx, from, tags...)
}

// Close closes this rank's mailbox; pending and future receives on it fail.
func (e *Endpoint) Close() {
	e.boxes[e.rank].Close(nil)
}

func (e *Endpoint) valid(r domain.Rank) bool {
	return r >= 0 && int(r) < len(e.boxes)
}
