package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/realtime"
)

func wsAckFrame(t *testing.T, session *realtime.Session) (wsAck, map[string]json.RawMessage) {
	t.Helper()
	select {
	case frame := <-session.Receive():
		var ack wsAck
		require.NoError(t, json.Unmarshal(frame, &ack))
		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(frame, &fields))
		return ack, fields
	default:
		t.Fatal("expected an ack frame")
		return wsAck{}, nil
	}
}

func TestWSHandlerMalformedCommand(t *testing.T) {
	hub := realtime.NewHub(4)
	handler := NewWSHandler(hub, nil, nil, zap.NewNop())

	principal := domain.Principal{ID: "agent-1", Role: domain.RoleAgent, Active: true}
	session := hub.Register(principal.ID, principal.Role)

	handler.handleRaw(session, principal, []byte("{not json"))

	ack, fields := wsAckFrame(t, session)
	require.False(t, ack.OK)
	require.Equal(t, "malformed command", ack.Message)
	// No action was decodable, so the nack must not carry one.
	require.NotContains(t, fields, "action")
	require.NotContains(t, fields, "ticket_id")
}

func TestWSHandlerUnknownAction(t *testing.T) {
	hub := realtime.NewHub(4)
	handler := NewWSHandler(hub, nil, nil, zap.NewNop())

	principal := domain.Principal{ID: "agent-1", Role: domain.RoleAgent, Active: true}
	session := hub.Register(principal.ID, principal.Role)

	handler.handleRaw(session, principal, []byte(`{"action":"dance"}`))

	ack, _ := wsAckFrame(t, session)
	require.False(t, ack.OK)
	require.Equal(t, "dance", ack.Action)
	require.Equal(t, "unknown action", ack.Message)
}

func TestWSHandlerLeaveAcks(t *testing.T) {
	hub := realtime.NewHub(4)
	handler := NewWSHandler(hub, nil, nil, zap.NewNop())

	principal := domain.Principal{ID: "agent-1", Role: domain.RoleAgent, Active: true}
	session := hub.Register(principal.ID, principal.Role)
	hub.JoinTicketRoom(session, "ticket-1")

	handler.handleRaw(session, principal, []byte(`{"action":"leave","ticket_id":"ticket-1"}`))

	ack, _ := wsAckFrame(t, session)
	require.True(t, ack.OK)
	require.Equal(t, "leave", ack.Action)
	require.Equal(t, "ticket-1", ack.TicketID)
}
