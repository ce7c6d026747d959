package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
)

const defaultSendBuffer = 256

// Session is one live realtime connection. Every session belongs to exactly
// one role room and one user room, plus the ticket rooms it joined. The Send
// channel is drained by the transport's write pump and closed on unregister.
type Session struct {
	ID     string
	UserID string
	Role   domain.Role
	send   chan []byte
}

// Receive exposes the outbound frame channel to the transport layer.
func (s *Session) Receive() <-chan []byte {
	return s.send
}

// Hub is the connection registry of the event distribution layer. It is the
// only in-process shared mutable state; all maps are guarded by mu.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byRole   map[domain.Role]map[*Session]struct{}
	byUser   map[string]map[*Session]struct{}
	byTicket map[string]map[*Session]struct{}

	sendBuffer int
	delivered  int64
	dropped    int64
}

// NewHub creates an empty registry.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		sessions:   make(map[string]*Session),
		byRole:     make(map[domain.Role]map[*Session]struct{}),
		byUser:     make(map[string]map[*Session]struct{}),
		byTicket:   make(map[string]map[*Session]struct{}),
		sendBuffer: sendBuffer,
	}
}

// Register creates a session for the user and joins its role and user rooms.
func (h *Hub) Register(userID string, role domain.Role) *Session {
	session := &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		send:   make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[session.ID] = session
	joinRoom(h.byRole, role, session)
	joinRoom(h.byUser, userID, session)
	return session
}

// Unregister removes the session from every room and closes its send channel.
// Safe to call more than once for the same session.
func (h *Hub) Unregister(session *Session) {
	if session == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[session.ID]; !ok {
		return
	}
	delete(h.sessions, session.ID)
	leaveRoom(h.byRole, session.Role, session)
	leaveRoom(h.byUser, session.UserID, session)
	for ticketID, members := range h.byTicket {
		if _, ok := members[session]; ok {
			leaveRoom(h.byTicket, ticketID, session)
		}
	}
	close(session.send)
}

// JoinTicketRoom subscribes the session to a ticket's live activity.
func (h *Hub) JoinTicketRoom(session *Session, ticketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[session.ID]; !ok {
		return
	}
	joinRoom(h.byTicket, ticketID, session)
}

// LeaveTicketRoom unsubscribes the session from a ticket room. Idempotent.
func (h *Hub) LeaveTicketRoom(session *Session, ticketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	leaveRoom(h.byTicket, ticketID, session)
}

// Publish delivers the frame to every session the audience resolves to,
// at most once per session per call. Delivery is best-effort: frames to slow
// sessions are dropped rather than blocking the publisher.
func (h *Hub) Publish(audience events.Audience, frame []byte) {
	// The read lock is held across delivery so Unregister cannot close a
	// send channel mid-loop. Sends never block, so the lock is short-lived.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, session := range h.resolve(audience) {
		select {
		case session.send <- frame:
			atomic.AddInt64(&h.delivered, 1)
		default:
			atomic.AddInt64(&h.dropped, 1)
		}
	}
}

// Send delivers a frame to a single session, dropping it if the session is
// slow or already unregistered.
func (h *Hub) Send(session *Session, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, registered := h.sessions[session.ID]; !registered {
		return
	}
	select {
	case session.send <- frame:
		atomic.AddInt64(&h.delivered, 1)
	default:
		atomic.AddInt64(&h.dropped, 1)
	}
}

// PublishToRole delivers the frame to every session in a role room.
func (h *Hub) PublishToRole(role domain.Role, frame []byte) {
	h.Publish(events.Audience{Roles: []domain.Role{role}}, frame)
}

// PublishToUser delivers the frame to every session of one user.
func (h *Hub) PublishToUser(userID string, frame []byte) {
	h.Publish(events.Audience{Users: []string{userID}}, frame)
}

// PublishToTicketRoom delivers the frame to every subscriber of a ticket room.
func (h *Hub) PublishToTicketRoom(ticketID string, frame []byte) {
	h.Publish(events.Audience{Tickets: []string{ticketID}}, frame)
}

// resolve computes the deduplicated target set. Callers hold at least a read
// lock.
func (h *Hub) resolve(audience events.Audience) []*Session {
	seen := make(map[*Session]struct{})
	for _, role := range audience.Roles {
		for session := range h.byRole[role] {
			seen[session] = struct{}{}
		}
	}
	for _, userID := range audience.Users {
		for session := range h.byUser[userID] {
			seen[session] = struct{}{}
		}
	}
	for _, ticketID := range audience.Tickets {
		for session := range h.byTicket[ticketID] {
			seen[session] = struct{}{}
		}
	}

	excluded := make(map[domain.Role]struct{}, len(audience.ExcludeRoles))
	for _, role := range audience.ExcludeRoles {
		excluded[role] = struct{}{}
	}

	targets := make([]*Session, 0, len(seen))
	for session := range seen {
		if _, skip := excluded[session.Role]; skip {
			continue
		}
		targets = append(targets, session)
	}
	return targets
}

// Stats reports registry counters.
type Stats struct {
	Sessions  int
	Delivered int64
	Dropped   int64
}

// Snapshot returns current registry counters.
func (h *Hub) Snapshot() Stats {
	h.mu.RLock()
	sessions := len(h.sessions)
	h.mu.RUnlock()
	return Stats{
		Sessions:  sessions,
		Delivered: atomic.LoadInt64(&h.delivered),
		Dropped:   atomic.LoadInt64(&h.dropped),
	}
}

func joinRoom[K comparable](rooms map[K]map[*Session]struct{}, key K, session *Session) {
	members, ok := rooms[key]
	if !ok {
		members = make(map[*Session]struct{})
		rooms[key] = members
	}
	members[session] = struct{}{}
}

func leaveRoom[K comparable](rooms map[K]map[*Session]struct{}, key K, session *Session) {
	members, ok := rooms[key]
	if !ok {
		return
	}
	delete(members, session)
	if len(members) == 0 {
		delete(rooms, key)
	}
}
