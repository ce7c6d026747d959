package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
)

func TestMetricsCountEvents(t *testing.T) {
	metrics := NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	metrics.CountEvents(dispatcher)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned}))

	require.Equal(t, int64(2), metrics.EventCount(string(events.EventTicketCreated)))
	require.Equal(t, int64(1), metrics.EventCount(string(events.EventTicketAssigned)))
	require.Zero(t, metrics.EventCount(string(events.EventTicketDeleted)))
}

func TestMetricsNilReceiver(t *testing.T) {
	var metrics *Metrics
	metrics.RecordEvent("ticket_created")
	require.Zero(t, metrics.EventCount("ticket_created"))
}
