package conn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	mcnet "github.com/OCharnyshevich/voxel-server/internal/server/net"
	"github.com/OCharnyshevich/voxel-server/internal/server/world"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

// outboxSize is how many packets may wait for a slow client before it is
// disconnected.
const outboxSize = 1024

// ChunkSource is the part of the world a session streams from.
// world.World implements it.
type ChunkSource interface {
	RequestChunkData(pos chunk.Pos, to world.Broker)
}

// Session is one client connection. Outbound packets are queued by any
// goroutine through SendPacket and written by the session's own writer.
type Session struct {
	conn   net.Conn
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	out    chan []byte

	closeOnce sync.Once
}

// NewSession creates a Session from a raw TCP connection.
func NewSession(ctx context.Context, conn net.Conn, log *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		conn:   conn,
		log:    log.With("addr", conn.RemoteAddr().String()),
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan []byte, outboxSize),
	}
}

// SendPacket queues body for the client. A client that falls outboxSize
// packets behind is disconnected.
func (s *Session) SendPacket(body []byte) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}
	select {
	case s.out <- body:
	default:
		s.disconnect("outbound queue full")
	}
}

// Done is closed once the session has ended.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Stream asks src for every chunk within radius of center, nearest ring
// first. It returns early once the session has ended.
func (s *Session) Stream(src ChunkSource, center chunk.Pos, radius int32) {
	src.RequestChunkData(center, s)
	for r := int32(1); r <= radius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx != -r && dx != r && dz != -r && dz != r {
					continue
				}
				if s.ctx.Err() != nil {
					return
				}
				src.RequestChunkData(chunk.Pos{X: center.X + dx, Z: center.Z + dz}, s)
			}
		}
	}
}

// Handle runs the connection until the client goes away or ctx is
// cancelled. Inbound packets are framed and discarded; the session only
// carries world output.
func (s *Session) Handle() {
	defer func() {
		s.disconnect("")
		s.log.Info("connection closed")
	}()
	s.log.Info("connection accepted")

	go s.writeLoop()
	go func() {
		<-s.ctx.Done()
		s.conn.Close()
	}()

	for {
		id, data, err := mcnet.ReadRawPacket(s.conn)
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("read packet", "error", err)
			return
		}
		s.log.Debug("packet ignored", "id", id, "len", len(data))
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case body := <-s.out:
			if _, err := s.conn.Write(mcnet.Frame(body)); err != nil {
				s.log.Error("write packet", "error", err)
				s.disconnect("write failed")
				return
			}
		}
	}
}

func (s *Session) disconnect(reason string) {
	s.closeOnce.Do(func() {
		if reason != "" {
			s.log.Info("disconnecting", "reason", reason)
		}
		s.cancel()
	})
}
