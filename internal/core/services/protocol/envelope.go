// Package protocol holds the message envelopes exchanged between the
// coordinator and the executors. Both roles go through these helpers so the
// framing rules live in one place:
//
//   - a first request is one FirstRequest message carrying a placeholder 0;
//   - a repeat request is a RepeatRequest count message [s] followed by
//     exactly one RepeatRequest payload message of s values from the same
//     sender;
//   - the reply is a Work message carrying a placement of length n, or an
//     empty Terminate message, answered by a TerminateAck [1].
package protocol

import (
	"context"
	"fmt"
	"math"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

const (
	firstRequestPlaceholder uint32 = 0
	ackValue                uint32 = 1
)

// Request is a work request as seen by the coordinator.
type Request struct {
	Source  domain.Rank
	First   bool
	Results []uint32
}

// Assignment is the coordinator's reply as seen by an executor.
type Assignment struct {
	Terminate bool
	Placement domain.Placement
}

// BroadcastParams publishes the problem parameters from the coordinator.
func BroadcastParams(ctx context.Context, t primary.Transport, params domain.Params) error {
	if _, err := t.Broadcast(ctx, domain.CoordinatorRank, params.Values()); err != nil {
		return fmt.Errorf("failed to broadcast parameters: %w", err)
	}
	return nil
}

// RecvParams takes part in the parameter broadcast on an executor.
func RecvParams(ctx context.Context, t primary.Transport) (domain.Params, error) {
	values, err := t.Broadcast(ctx, domain.CoordinatorRank, nil)
	if err != nil {
		return domain.Params{}, fmt.Errorf("failed to receive parameters: %w", err)
	}
	return domain.ParamsFromValues(values)
}

// SendRequest asks the coordinator for work. Every request after the first
// carries the results gathered since the previous one.
func SendRequest(ctx context.Context, t primary.Transport, first bool, results []uint32) error {
	if first {
		return t.Send(ctx, domain.CoordinatorRank, domain.TagFirstRequest, []uint32{firstRequestPlaceholder})
	}

	if uint64(len(results)) > math.MaxUint32 {
		return fmt.Errorf("%d result values cannot be counted in one word", len(results))
	}
	if err := t.Send(ctx, domain.CoordinatorRank, domain.TagRepeatRequest, []uint32{uint32(len(results))}); err != nil {
		return fmt.Errorf("failed to send result count: %w", err)
	}
	if err := t.Send(ctx, domain.CoordinatorRank, domain.TagRepeatRequest, results); err != nil {
		return fmt.Errorf("failed to send results: %w", err)
	}
	return nil
}

// RecvRequest waits for the next work request from any executor. For a repeat
// request the payload is read from the sender captured off the count message.
func RecvRequest(ctx context.Context, t primary.Transport) (Request, error) {
	head, err := t.Recv(ctx, domain.AnySource, domain.TagFirstRequest, domain.TagRepeatRequest)
	if err != nil {
		return Request{}, fmt.Errorf("failed to receive request: %w", err)
	}

	req := Request{Source: head.Source}
	if head.Tag == domain.TagFirstRequest {
		req.First = true
		return req, nil
	}

	if len(head.Payload) != 1 {
		return Request{}, fmt.Errorf("%w: count message from rank %d has %d values", errs.UnexpectedTag, head.Source, len(head.Payload))
	}
	count := int(head.Payload[0])

	body, err := t.Recv(ctx, head.Source, domain.TagRepeatRequest)
	if err != nil {
		return Request{}, fmt.Errorf("failed to receive results from rank %d: %w", head.Source, err)
	}
	if len(body.Payload) != count {
		return Request{}, fmt.Errorf("%w: rank %d announced %d values, sent %d", errs.UnexpectedTag, head.Source, count, len(body.Payload))
	}
	req.Results = body.Payload
	return req, nil
}

// SendWork ships a placement to dest.
func SendWork(ctx context.Context, t primary.Transport, dest domain.Rank, p domain.Placement) error {
	if err := t.Send(ctx, dest, domain.TagWork, p); err != nil {
		return fmt.Errorf("failed to send work to rank %d: %w", dest, err)
	}
	return nil
}

// SendTerminate tells dest that no work is left.
func SendTerminate(ctx context.Context, t primary.Transport, dest domain.Rank) error {
	if err := t.Send(ctx, dest, domain.TagTerminate, nil); err != nil {
		return fmt.Errorf("failed to send termination to rank %d: %w", dest, err)
	}
	return nil
}

// RecvAssignment waits for the coordinator's reply to a request.
func RecvAssignment(ctx context.Context, t primary.Transport, n int) (Assignment, error) {
	msg, err := t.Recv(ctx, domain.CoordinatorRank, domain.TagWork, domain.TagTerminate)
	if err != nil {
		return Assignment{}, fmt.Errorf("failed to receive assignment: %w", err)
	}
	if msg.Tag == domain.TagTerminate {
		return Assignment{Terminate: true}, nil
	}
	if len(msg.Payload) != n {
		return Assignment{}, fmt.Errorf("%w: placement of length %d for board size %d", errs.UnexpectedTag, len(msg.Payload), n)
	}
	return Assignment{Placement: domain.Placement(msg.Payload)}, nil
}

// SendAck acknowledges termination.
func SendAck(ctx context.Context, t primary.Transport) error {
	if err := t.Send(ctx, domain.CoordinatorRank, domain.TagTerminateAck, []uint32{ackValue}); err != nil {
		return fmt.Errorf("failed to send termination ack: %w", err)
	}
	return nil
}

// RecvAck waits for from's termination acknowledgement.
func RecvAck(ctx context.Context, t primary.Transport, from domain.Rank) error {
	if _, err := t.Recv(ctx, from, domain.TagTerminateAck); err != nil {
		return fmt.Errorf("failed to receive termination ack from rank %d: %w", from, err)
	}
	return nil
}
