package conn

import "sync"

// Hub fans packets out to every attached session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[*Session]struct{})}
}

// Add attaches s until it ends.
func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-s.Done()
		h.mu.Lock()
		delete(h.sessions, s)
		h.mu.Unlock()
	}()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// SendPacket queues body on every session.
func (h *Hub) SendPacket(body []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		s.SendPacket(body)
	}
}
