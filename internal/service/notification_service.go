package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/config"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
)

// NotificationService emits email notifications for domain events. Delivery
// is a non-critical side effect: failures are logged and swallowed, never
// propagated to the mutation that triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to the events that trigger notifications.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handle)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handle)
	n.dispatcher.Subscribe(events.EventTicketAccepted, n.handle)
	n.dispatcher.Subscribe(events.EventTicketRejected, n.handle)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handle)
}

func (n *NotificationService) handle(_ context.Context, event events.Event) error {
	n.sendEmailStub(event)
	return nil
}

// sendEmailStub stands in for the mail provider integration, which lives
// outside this service.
func (n *NotificationService) sendEmailStub(event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("notification email",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
