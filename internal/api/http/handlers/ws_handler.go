package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/realtime"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/service"
	apperrors "github.com/debudebuye/Role-Based-Ticketing-System-sub001/pkg/util"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = 50 * time.Second
)

// wsCommand is a client-to-server control frame: join or leave a ticket room.
type wsCommand struct {
	Action   string `json:"action"`
	TicketID string `json:"ticket_id"`
}

type wsAck struct {
	Action   string `json:"action,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
}

// WSHandler upgrades authenticated requests to live event streams.
type WSHandler struct {
	hub        *realtime.Hub
	tickets    *service.TicketService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewWSHandler constructs handler.
func NewWSHandler(hub *realtime.Hub, tickets *service.TicketService, dispatcher events.Dispatcher, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// Upgrade gates the websocket handshake. Runs after auth middleware so the
// principal is already on the request.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return apperrors.NewValidationError("websocket upgrade required")
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	c.Locals(auth.PrincipalKey, principal)
	return c.Next()
}

// Serve is the websocket connection loop. One session per connection.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		principal, ok := conn.Locals(auth.PrincipalKey).(domain.Principal)
		if !ok {
			_ = conn.Close()
			return
		}
		h.serve(conn, principal)
	})
}

func (h *WSHandler) serve(conn *websocket.Conn, principal domain.Principal) {
	session := h.hub.Register(principal.ID, principal.Role)
	h.logger.Info("websocket connected",
		zap.String("session_id", session.ID),
		zap.String("user_id", principal.ID),
		zap.String("role", string(principal.Role)))
	h.publishPresence(events.EventUserConnected, principal)

	done := make(chan struct{})
	go h.writePump(conn, session, done)

	h.readPump(conn, session, principal)

	h.hub.Unregister(session)
	close(done)
	h.publishPresence(events.EventUserOffline, principal)
	h.logger.Info("websocket disconnected",
		zap.String("session_id", session.ID),
		zap.String("user_id", principal.ID))
}

// readPump consumes join/leave commands until the client goes away.
func (h *WSHandler) readPump(conn *websocket.Conn, session *realtime.Session, principal domain.Principal) {
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleRaw(session, principal, raw)
	}
}

// handleRaw decodes one client frame. A frame that is not valid JSON carries
// no usable action to echo back, so the nack omits it.
func (h *WSHandler) handleRaw(session *realtime.Session, principal domain.Principal, raw []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		h.sendAck(session, wsAck{OK: false, Message: "malformed command"})
		return
	}
	h.handleCommand(session, principal, cmd)
}

func (h *WSHandler) handleCommand(session *realtime.Session, principal domain.Principal, cmd wsCommand) {
	switch cmd.Action {
	case "join":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Room membership requires read access to the ticket, so customers
		// cannot subscribe to other users' conversations.
		if _, err := h.tickets.Get(ctx, principal, cmd.TicketID); err != nil {
			h.sendAck(session, wsAck{Action: cmd.Action, TicketID: cmd.TicketID, OK: false, Message: "ticket not accessible"})
			return
		}
		h.hub.JoinTicketRoom(session, cmd.TicketID)
		h.sendAck(session, wsAck{Action: cmd.Action, TicketID: cmd.TicketID, OK: true})
	case "leave":
		h.hub.LeaveTicketRoom(session, cmd.TicketID)
		h.sendAck(session, wsAck{Action: cmd.Action, TicketID: cmd.TicketID, OK: true})
	default:
		h.sendAck(session, wsAck{Action: cmd.Action, OK: false, Message: "unknown action"})
	}
}

// writePump drains the session buffer onto the wire and keeps the
// connection alive with pings.
func (h *WSHandler) writePump(conn *websocket.Conn, session *realtime.Session, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case frame, ok := <-session.Receive():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) sendAck(session *realtime.Session, ack wsAck) {
	frame, err := json.Marshal(ack)
	if err != nil {
		return
	}
	h.hub.Send(session, frame)
}

func (h *WSHandler) publishPresence(eventType events.EventType, principal domain.Principal) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     events.Actor{UserID: principal.ID, Role: principal.Role},
		Timestamp: time.Now().UTC(),
		Payload:   events.PresencePayload{UserID: principal.ID, Role: principal.Role},
	})
}
