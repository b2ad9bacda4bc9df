package connectionmanager

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"sync"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/tcp/defs"
)

// Peer is a registered executor connection. Writes are serialized.
type Peer struct {
	ID      string
	Rank    domain.Rank
	Conn    net.Conn
	writeMu sync.Mutex
}

// Send writes one frame to the peer
func (p *Peer) Send(msgType byte, payload []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return SendMessage(p.Conn, msgType, payload)
}

// SendValues writes one data message to the peer
func (p *Peer) SendValues(msgType byte, values []uint32) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return SendValues(p.Conn, msgType, values)
}

// SendError writes an error frame to the peer
func (p *Peer) SendError(code int, message string) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	SendErrorMessage(p.Conn, code, message)
}

// ConnectionManager handles executor connections and rank assignment
type ConnectionManager struct {
	size     int
	nextRank domain.Rank
	peers    map[domain.Rank]*Peer
	connMu   sync.RWMutex
	Logger   primary.Logger
}

// NewConnectionManager creates a connection manager for a cluster of size
// processes, the coordinator included
func NewConnectionManager(size int, logger primary.Logger) *ConnectionManager {
	return &ConnectionManager{
		size:     size,
		nextRank: 1,
		peers:    make(map[domain.Rank]*Peer),
		Logger:   logger,
	}
}

// RegisterExecutor assigns the next free rank to conn. It returns false once
// every executor rank has been handed out.
func (cm *ConnectionManager) RegisterExecutor(executorID string, conn net.Conn) (*Peer, bool) {
	cm.connMu.Lock()
	defer cm.connMu.Unlock()

	if int(cm.nextRank) >= cm.size {
		return nil, false
	}
	peer := &Peer{ID: executorID, Rank: cm.nextRank, Conn: conn}
	cm.peers[peer.Rank] = peer
	cm.nextRank++
	return peer, true
}

// Registered returns the number of ranks handed out so far
func (cm *ConnectionManager) Registered() int {
	cm.connMu.RLock()
	defer cm.connMu.RUnlock()
	return int(cm.nextRank) - 1
}

// RemoveExecutor forgets the connection of rank. The rank is not reused.
func (cm *ConnectionManager) RemoveExecutor(rank domain.Rank) {
	cm.connMu.Lock()
	delete(cm.peers, rank)
	cm.connMu.Unlock()
}

// GetPeer returns the connection of a specific rank
func (cm *ConnectionManager) GetPeer(rank domain.Rank) (*Peer, bool) {
	cm.connMu.RLock()
	defer cm.connMu.RUnlock()

	peer, exists := cm.peers[rank]
	return peer, exists
}

// Peers returns every connected executor
func (cm *ConnectionManager) Peers() []*Peer {
	cm.connMu.RLock()
	defer cm.connMu.RUnlock()

	peers := make([]*Peer, 0, len(cm.peers))
	for _, p := range cm.peers {
		peers = append(peers, p)
	}
	return peers
}

// CloseAll closes every executor connection
func (cm *ConnectionManager) CloseAll() {
	cm.connMu.Lock()
	defer cm.connMu.Unlock()

	for rank, peer := range cm.peers {
		if err := peer.Conn.Close(); err != nil {
			cm.Logger.Debug("Failed to close connection", "rank", rank, "error", err)
		}
	}
}

// SendErrorMessage sends an error message to an executor
func SendErrorMessage(conn net.Conn, code int, message string) {
	errorData := defs.ErrorData{
		Code:    code,
		Message: message,
	}

	errorBytes, err := json.Marshal(errorData)
	if err != nil {
		// Can't do much if marshaling fails
		return
	}

	// Ignore errors here as the connection might be closing
	_ = SendMessage(conn, defs.MsgError, errorBytes)
}

// SendMessage writes payload as a single frame
func SendMessage(conn net.Conn, msgType byte, payload []byte) error {
	if len(payload) > defs.MaxFramePayload {
		return fmt.Errorf("payload of %d bytes does not fit one frame", len(payload))
	}
	return writeFrame(conn, msgType, 0, payload)
}

// SendValues writes values as one message, split over as many frames as
// MaxFramePayload requires
func SendValues(w io.Writer, msgType byte, values []uint32) error {
	const perFrame = defs.MaxFramePayload / 4
	for {
		n := min(len(values), perFrame)
		var flags byte
		if n < len(values) {
			flags = defs.FlagContinued
		}
		if err := writeFrame(w, msgType, flags, EncodeValues(values[:n])); err != nil {
			return err
		}
		values = values[n:]
		if len(values) == 0 {
			return nil
		}
	}
}

func frameHeader(msgType, flags byte, payloadLen int) ([]byte, error) {
	if payloadLen < 0 || uint64(payloadLen) > math.MaxUint32 {
		return nil, fmt.Errorf("payload of %d bytes cannot be framed", payloadLen)
	}
	header := make([]byte, 8)
	binary.BigEndian.PutUint16(header[0:2], defs.MagicNumber)
	header[2] = msgType
	header[3] = flags
	binary.BigEndian.PutUint32(header[4:8], uint32(payloadLen))
	return header, nil
}

func writeFrame(w io.Writer, msgType, flags byte, payload []byte) error {
	header, err := frameHeader(msgType, flags, len(payload))
	if err != nil {
		return err
	}
	frame := append(header, payload...)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// readFrame reads one frame whose payload is at most limit bytes
func readFrame(r io.Reader, limit uint32) (byte, byte, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, 0, nil, err
	}

	magic := binary.BigEndian.Uint16(header[0:2])
	msgType := header[2]
	flags := header[3]
	payloadLen := binary.BigEndian.Uint32(header[4:8])

	if magic != defs.MagicNumber {
		return 0, 0, nil, fmt.Errorf("invalid magic number: %x", magic)
	}
	if payloadLen > limit {
		return 0, 0, nil, fmt.Errorf("frame of %d bytes exceeds limit of %d", payloadLen, limit)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, 0, nil, err
	}
	return msgType, flags, payload, nil
}

// ReadMessage reads one message, joining continued frames. The total length
// is unbounded; each frame is bounded by MaxFramePayload.
func ReadMessage(r io.Reader) (byte, []byte, error) {
	msgType, flags, payload, err := readFrame(r, defs.MaxFramePayload)
	if err != nil {
		return 0, nil, err
	}

	for flags&defs.FlagContinued != 0 {
		var next byte
		var chunk []byte
		next, flags, chunk, err = readFrame(r, defs.MaxFramePayload)
		if err != nil {
			return 0, nil, err
		}
		if next != msgType {
			return 0, nil, fmt.Errorf("continuation frame has type %d, message has type %d", next, msgType)
		}
		payload = append(payload, chunk...)
	}
	return msgType, payload, nil
}

// ReadControlMessage reads a single small frame, as sent before a peer is
// registered
func ReadControlMessage(r io.Reader) (byte, []byte, error) {
	msgType, flags, payload, err := readFrame(r, defs.MaxControlPayload)
	if err != nil {
		return 0, nil, err
	}
	if flags&defs.FlagContinued != 0 {
		return 0, nil, fmt.Errorf("control frame of type %d cannot be continued", msgType)
	}
	return msgType, payload, nil
}

// EncodeValues packs values as big-endian uint32s
func EncodeValues(values []uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

// DecodeValues unpacks a big-endian uint32 payload
func DecodeValues(payload []byte) ([]uint32, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of 4", len(payload))
	}
	values := make([]uint32, len(payload)/4)
	for i := range values {
		values[i] = binary.BigEndian.Uint32(payload[4*i:])
	}
	return values, nil
}

// DecodeError parses an error frame payload
func DecodeError(payload []byte) defs.ErrorData {
	var data defs.ErrorData
	if err := json.Unmarshal(payload, &data); err != nil {
		data.Message = string(payload)
	}
	return data
}
