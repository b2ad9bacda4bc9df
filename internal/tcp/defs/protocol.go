package defs

import (
	"time"

	"gitlab.com/nqueens.net/internal/domain"
)

// Protocol constants
const (
	MagicNumber uint16 = 0xCAFE

	// Control message types
	MsgRegister   byte = 0x01
	MsgRegistered byte = 0x02
	MsgBroadcast  byte = 0x03
	MsgError      byte = 0x07

	// MsgData is the base of the data message types. A data frame carries
	// type MsgData+tag and a big-endian uint32 payload.
	MsgData byte = 0x10

	// Error codes
	ErrCodeUnauthorized       = 1001
	ErrCodeRegistrationFailed = 1002
	ErrCodeClusterFull        = 1003
	ErrCodeUnknownType        = 1016

	// Configuration constants
	InitialRegistrationTimeout = 30 * time.Second
	ConnectionRetryDelay       = 1 * time.Second

	// MaxFramePayload bounds a single frame. Data messages longer than this
	// span several frames, all but the last flagged FlagContinued.
	MaxFramePayload = 16 << 20
	// MaxControlPayload bounds control frames such as registration, which
	// are read before the peer is known.
	MaxControlPayload = 64 << 10

	// FlagContinued is set in the header's flags byte when the message goes
	// on in the next frame.
	FlagContinued byte = 0x01
)

// DataType returns the frame type that carries tag
func DataType(tag domain.Tag) byte {
	return MsgData + byte(tag)
}

// TagOf returns the protocol tag carried by a data frame type
func TagOf(msgType byte) (domain.Tag, bool) {
	if msgType <= MsgData {
		return 0, false
	}
	tag := domain.Tag(msgType - MsgData)
	if !tag.Valid() || tag == domain.TagBroadcast {
		return 0, false
	}
	return tag, true
}

// Protocol data structures
type (
	// RegistrationData represents the data sent during executor registration
	RegistrationData struct {
		ExecutorID string `json:"executor_id"`
		Token      string `json:"token,omitempty"`
		Ip         string `json:"ip_address"`
	}

	// RegisteredData is the coordinator's answer to a successful registration
	RegisteredData struct {
		Rank int `json:"rank"`
		Size int `json:"size"`
	}

	// ErrorData represents data sent with error responses
	ErrorData struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
)
