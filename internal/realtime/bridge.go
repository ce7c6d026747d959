package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
)

// Bridge fans domain events out to other instances through Redis pub/sub.
// Each instance publishes every local event to one channel and re-delivers
// events that originated elsewhere to its own hub. Best-effort: publish
// failures are logged and dropped, never propagated to the mutation path.
type Bridge struct {
	client   *redis.Client
	hub      *Hub
	logger   *zap.Logger
	channel  string
	instance string
}

// envelope is the wire format carried over Redis. The audience is resolved on
// the origin instance so receivers deliver without re-decoding the payload.
type envelope struct {
	Origin   string          `json:"origin"`
	Audience wireAudience    `json:"audience"`
	Frame    json.RawMessage `json:"frame"`
}

type wireAudience struct {
	Roles        []string `json:"roles,omitempty"`
	Users        []string `json:"users,omitempty"`
	Tickets      []string `json:"tickets,omitempty"`
	ExcludeRoles []string `json:"exclude_roles,omitempty"`
}

// NewBridge creates a bridge for the given channel.
func NewBridge(client *redis.Client, hub *Hub, channel string, logger *zap.Logger) *Bridge {
	return &Bridge{
		client:   client,
		hub:      hub,
		logger:   logger,
		channel:  channel,
		instance: uuid.NewString(),
	}
}

// Attach subscribes the bridge to every locally dispatched event.
func (b *Bridge) Attach(dispatcher events.Dispatcher) {
	dispatcher.SubscribeAll(b.forward)
}

func (b *Bridge) forward(ctx context.Context, event events.Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("bridge encode failed", zap.Error(err))
		return nil
	}
	env := envelope{
		Origin:   b.instance,
		Audience: toWire(AudienceFor(event)),
		Frame:    frame,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		b.logger.Warn("bridge envelope encode failed", zap.Error(err))
		return nil
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("bridge publish failed", zap.Error(err))
	}
	return nil
}

// Run consumes the channel until the context is cancelled, delivering events
// from other instances to the local hub.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *Bridge) handleMessage(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("bridge decode failed", zap.Error(err))
		return
	}
	if env.Origin == b.instance {
		return
	}
	b.hub.Publish(fromWire(env.Audience), env.Frame)
}

func toWire(a events.Audience) wireAudience {
	w := wireAudience{
		Users:   a.Users,
		Tickets: a.Tickets,
	}
	for _, role := range a.Roles {
		w.Roles = append(w.Roles, string(role))
	}
	for _, role := range a.ExcludeRoles {
		w.ExcludeRoles = append(w.ExcludeRoles, string(role))
	}
	return w
}

func fromWire(w wireAudience) events.Audience {
	a := events.Audience{
		Users:   w.Users,
		Tickets: w.Tickets,
	}
	for _, role := range w.Roles {
		a.Roles = append(a.Roles, domain.Role(role))
	}
	for _, role := range w.ExcludeRoles {
		a.ExcludeRoles = append(a.ExcludeRoles, domain.Role(role))
	}
	return a
}
