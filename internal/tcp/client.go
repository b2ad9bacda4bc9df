package tcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/mailbox"
	"gitlab.com/nqueens.net/internal/static/errs"
	"gitlab.com/nqueens.net/internal/tcp/connectionmanager"
	"gitlab.com/nqueens.net/internal/tcp/defs"
)

var _ primary.Transport = (*TCPClient)(nil)

// TCPClient is an executor's connection to the coordinator
type TCPClient struct {
	executorID string
	rank       domain.Rank
	size       int
	conn       net.Conn
	writeMu    sync.Mutex
	inbox      *mailbox.Mailbox
	logger     primary.Logger
}

type clientOptions struct {
	executorID string
	token      string
}

// ClientOption configures Dial
type ClientOption func(*clientOptions)

// WithExecutorID sets the identifier sent at registration. A random UUID is
// used otherwise.
func WithExecutorID(id string) ClientOption {
	return func(o *clientOptions) {
		o.executorID = id
	}
}

// WithToken sets the registration token
func WithToken(token string) ClientOption {
	return func(o *clientOptions) {
		o.token = token
	}
}

// Dial connects to the coordinator at address and registers. It returns once
// the coordinator has assigned a rank.
func Dial(ctx context.Context, address string, logger primary.Logger, options ...ClientOption) (*TCPClient, error) {
	opts := clientOptions{executorID: uuid.NewString()}
	for _, option := range options {
		option(&opts)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to coordinator: %w", err)
	}

	client := &TCPClient{
		executorID: opts.executorID,
		conn:       conn,
		inbox:      mailbox.New(),
		logger:     logger,
	}

	if err := client.register(ctx, opts); err != nil {
		conn.Close()
		return nil, err
	}

	go client.readLoop()

	logger.Info("Registered with coordinator", "executorID", client.executorID, "rank", client.rank, "size", client.size)
	return client, nil
}

func (c *TCPClient) register(ctx context.Context, opts clientOptions) error {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
	} else {
		c.conn.SetDeadline(time.Now().Add(defs.InitialRegistrationTimeout))
	}
	defer c.conn.SetDeadline(time.Time{})

	ip, _, _ := net.SplitHostPort(c.conn.LocalAddr().String())
	payload, err := json.Marshal(defs.RegistrationData{
		ExecutorID: opts.executorID,
		Token:      opts.token,
		Ip:         ip,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}
	if err := c.write(defs.MsgRegister, payload); err != nil {
		return err
	}

	msgType, reply, err := connectionmanager.ReadControlMessage(c.conn)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.RegistrationFailed, err)
	}

	switch msgType {
	case defs.MsgRegistered:
		var data defs.RegisteredData
		if err := json.Unmarshal(reply, &data); err != nil {
			return fmt.Errorf("%w: invalid reply: %w", errs.RegistrationFailed, err)
		}
		c.rank = domain.Rank(data.Rank)
		c.size = data.Size
		return nil
	case defs.MsgError:
		data := connectionmanager.DecodeError(reply)
		if data.Code == defs.ErrCodeUnauthorized {
			return fmt.Errorf("%w: %s", errs.Unauthorized, data.Message)
		}
		return fmt.Errorf("%w: %s (code %d)", errs.RegistrationFailed, data.Message, data.Code)
	default:
		return fmt.Errorf("%w: unexpected reply type %d", errs.RegistrationFailed, msgType)
	}
}

// readLoop feeds coordinator frames into the inbox until the connection ends
func (c *TCPClient) readLoop() {
	for {
		msgType, payload, err := connectionmanager.ReadMessage(c.conn)
		if err != nil {
			c.inbox.Close(fmt.Errorf("coordinator connection: %w", errs.TransportClosed))
			return
		}

		var tag domain.Tag
		switch msgType {
		case defs.MsgBroadcast:
			tag = domain.TagBroadcast
		case defs.MsgError:
			data := connectionmanager.DecodeError(payload)
			c.logger.Error("Coordinator reported an error", "code", data.Code, "message", data.Message)
			continue
		default:
			var ok bool
			if tag, ok = defs.TagOf(msgType); !ok {
				c.logger.Error("Unknown message type", "type", msgType)
				continue
			}
		}

		values, err := connectionmanager.DecodeValues(payload)
		if err != nil {
			c.inbox.Close(fmt.Errorf("coordinator sent a malformed frame: %w", errs.UnexpectedTag))
			return
		}
		c.inbox.Put(domain.Message{Source: domain.CoordinatorRank, Tag: tag, Payload: values})
	}
}

func (c *TCPClient) write(msgType byte, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return connectionmanager.SendMessage(c.conn, msgType, payload)
}

func (c *TCPClient) writeValues(msgType byte, values []uint32) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return connectionmanager.SendValues(c.conn, msgType, values)
}

// ExecutorID returns the identifier the client registered with
func (c *TCPClient) ExecutorID() string {
	return c.executorID
}

func (c *TCPClient) Rank() domain.Rank {
	return c.rank
}

func (c *TCPClient) Size() int {
	return c.size
}

// Broadcast receives the coordinator's broadcast. Executors cannot be the root.
func (c *TCPClient) Broadcast(ctx context.Context, root domain.Rank, _ []uint32) ([]uint32, error) {
	if root != domain.CoordinatorRank {
		return nil, fmt.Errorf("%w: broadcast root %d", errs.UnknownRank, root)
	}
	msg, err := c.inbox.Take(ctx, root, domain.TagBroadcast)
	if err != nil {
		return nil, fmt.Errorf("failed to receive broadcast: %w", err)
	}
	return msg.Payload, nil
}

// Send writes one data message to the coordinator, the only reachable rank
func (c *TCPClient) Send(ctx context.Context, dest domain.Rank, tag domain.Tag, values []uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dest != domain.CoordinatorRank {
		return fmt.Errorf("%w: %d", errs.UnknownRank, dest)
	}
	if err := c.writeValues(defs.DataType(tag), values); err != nil {
		return fmt.Errorf("failed to send %s: %w", tag, err)
	}
	return nil
}

func (c *TCPClient) Recv(ctx context.Context, from domain.Rank, tags ...domain.Tag) (domain.Message, error) {
	if from != domain.AnySource && from != domain.CoordinatorRank {
		return domain.Message{}, fmt.Errorf("%w: %d", errs.UnknownRank, from)
	}
	return c.inbox.Take(ctx, from, tags...)
}

// Close closes the connection to the coordinator
func (c *TCPClient) Close() error {
	err := c.conn.Close()
	c.inbox.Close(nil)
	return err
}
