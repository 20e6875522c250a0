package conn

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcnet "github.com/OCharnyshevich/voxel-server/internal/server/net"
	"github.com/OCharnyshevich/voxel-server/internal/server/world"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pipeSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	s := NewSession(context.Background(), server, discard())
	go s.Handle()
	t.Cleanup(func() {
		client.Close()
		<-s.Done()
	})
	return s, client
}

func TestSessionFramesOutboundPackets(t *testing.T) {
	s, client := pipeSession(t)

	s.SendPacket([]byte{0x0B, 1, 2, 3})
	s.SendPacket([]byte{0x22})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	id, data, err := mcnet.ReadRawPacket(client)
	require.NoError(t, err)
	assert.Equal(t, int32(0x0B), id)
	assert.Equal(t, []byte{1, 2, 3}, data)

	id, data, err = mcnet.ReadRawPacket(client)
	require.NoError(t, err)
	assert.Equal(t, int32(0x22), id)
	assert.Empty(t, data)
}

func TestSessionEndsWhenClientCloses(t *testing.T) {
	s, client := pipeSession(t)

	require.NoError(t, mcnet.WriteRawPacket(client, 0x00, []byte{9}))
	client.Close()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}
	s.SendPacket([]byte{0x22}) // dropped, must not block
}

type recordingSource struct {
	got []chunk.Pos
}

func (r *recordingSource) RequestChunkData(pos chunk.Pos, _ world.Broker) {
	r.got = append(r.got, pos)
}

func TestStreamCoversSquareNearestFirst(t *testing.T) {
	s := NewSession(context.Background(), nopConn{}, discard())
	src := &recordingSource{}
	s.Stream(src, chunk.Pos{X: 10, Z: -3}, 2)

	require.Len(t, src.got, 25)
	assert.Equal(t, chunk.Pos{X: 10, Z: -3}, src.got[0])

	seen := make(map[chunk.Pos]bool)
	ring := int32(0)
	for _, p := range src.got {
		assert.False(t, seen[p], "duplicate %v", p)
		seen[p] = true
		r := max(abs(p.X-10), abs(p.Z+3))
		assert.GreaterOrEqual(t, r, ring)
		ring = r
	}
}

// hangingSource never answers until release is closed.
type hangingSource struct {
	calls   chan chunk.Pos
	release chan struct{}
}

func (h *hangingSource) RequestChunkData(pos chunk.Pos, _ world.Broker) {
	h.calls <- pos
	<-h.release
}

func TestStreamRunsBesideOtherSessions(t *testing.T) {
	src := &hangingSource{calls: make(chan chunk.Pos, 64), release: make(chan struct{})}
	slow := NewSession(context.Background(), nopConn{}, discard())
	go slow.Stream(src, chunk.Pos{}, 3)

	select {
	case <-src.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not start")
	}

	// a second session streams while the first is still stuck
	fast := NewSession(context.Background(), nopConn{}, discard())
	rec := &recordingSource{}
	fast.Stream(rec, chunk.Pos{X: 5}, 1)
	assert.Len(t, rec.got, 9)

	slow.disconnect("")
	close(src.release)
	// nothing is requested after the disconnect
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, len(src.calls))
}

func TestHubBroadcasts(t *testing.T) {
	h := NewHub()
	a, ca := pipeSession(t)
	b, cb := pipeSession(t)
	h.Add(a)
	h.Add(b)
	assert.Equal(t, 2, h.Len())

	h.SendPacket([]byte{0x0B, 7})
	for _, c := range []net.Conn{ca, cb} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
		id, data, err := mcnet.ReadRawPacket(c)
		require.NoError(t, err)
		assert.Equal(t, int32(0x0B), id)
		assert.Equal(t, []byte{7}, data)
	}

	ca.Close()
	assert.Eventually(t, func() bool { return h.Len() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

type nopConn struct{ net.Conn }

func (nopConn) RemoteAddr() net.Addr { return &net.TCPAddr{} }
