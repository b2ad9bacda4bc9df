package primary

import (
	"context"

	"gitlab.com/nqueens.net/internal/domain"
)

// Transport is the messaging substrate a role runs on. Messages between one
// sender and one receiver arrive in send order; there is no ordering across
// senders.
type Transport interface {
	// Rank returns the address of the local process.
	Rank() domain.Rank

	// Size returns the fixed number of processes in the run.
	Size() int

	// Broadcast distributes values from root to every rank. Every rank calls
	// it; non-root ranks receive the root's values as the return value.
	Broadcast(ctx context.Context, root domain.Rank, values []uint32) ([]uint32, error)

	// Send delivers values to dest. The payload is copied before Send returns.
	Send(ctx context.Context, dest domain.Rank, tag domain.Tag, values []uint32) error

	// Recv blocks for the oldest message from `from` (or domain.AnySource)
	// carrying one of tags (any tag when none are given).
	Recv(ctx context.Context, from domain.Rank, tags ...domain.Tag) (domain.Message, error)
}

// TokenService issues and verifies executor registration tokens.
type TokenService interface {
	GenerateToken(ctx context.Context, executorID string) (string, error)
	VerifyToken(ctx context.Context, token string, executorID string) (bool, error)
}
