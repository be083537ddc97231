package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/logging"
)

var dispatchTracer = otel.Tracer("dispatch-service")

// BackplaneChannel is the Redis pub/sub channel relay instances share.
const BackplaneChannel = "relay:events"

// DispatchService resolves targets through the local registry and pushes
// events to live connections. When an EventBus is configured it also
// publishes every dispatch so sibling instances can deliver to their own
// local connections.
type DispatchService struct {
	log      *slog.Logger
	registry contracts.Registry
	bus      contracts.EventBus // nil disables the backplane
	origin   string
}

func NewDispatchService(
	log *slog.Logger,
	registry contracts.Registry,
	bus contracts.EventBus,
	origin string,
) *DispatchService {
	return &DispatchService{
		log:      log,
		registry: registry,
		bus:      bus,
		origin:   origin,
	}
}

// SendToUser reports whether the user had a live connection on this instance.
// False is the expected steady state for offline recipients; the persisted
// row is the durable copy and the client recovers it through the read API.
func (d *DispatchService) SendToUser(ctx context.Context, userID, event string, payload any) bool {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.SendToUser", trace.WithAttributes(
		attribute.String("relay.user_id", userID),
		attribute.String("relay.event", event),
	))
	defer span.End()
	frame, err := domain.NewEnvelope(event, payload)
	if err != nil {
		span.RecordError(err)
		d.log.ErrorContext(ctx, "dispatch - send to user - marshal failed", logging.Event(event), logging.Err(err))
		return false
	}
	d.publish(ctx, domain.ScopeUser, userID, frame)
	c, ok := d.registry.Lookup(userID)
	if !ok {
		span.SetAttributes(attribute.Bool("relay.delivered", false))
		return false
	}
	if err := c.Send(ctx, frame); err != nil {
		d.log.WarnContext(ctx, "dispatch - send to user - write failed", logging.Recipient(userID), logging.Err(err))
		return false
	}
	span.SetAttributes(attribute.Bool("relay.delivered", true))
	return true
}

func (d *DispatchService) SendToChannel(ctx context.Context, channelID, event string, payload any) {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.SendToChannel", trace.WithAttributes(
		attribute.String("relay.channel_id", channelID),
		attribute.String("relay.event", event),
	))
	defer span.End()
	frame, err := domain.NewEnvelope(event, payload)
	if err != nil {
		span.RecordError(err)
		d.log.ErrorContext(ctx, "dispatch - send to channel - marshal failed", logging.Event(event), logging.Err(err))
		return
	}
	d.publish(ctx, domain.ScopeChannel, channelID, frame)
	members := d.registry.Channel(channelID)
	span.SetAttributes(attribute.Int("relay.recipients", len(members)))
	for _, c := range members {
		if err := c.Send(ctx, frame); err != nil {
			d.log.WarnContext(ctx, "dispatch - send to channel - write failed", logging.Channel(channelID), logging.Recipient(c.UserID()), logging.Err(err))
		}
	}
}

func (d *DispatchService) Broadcast(ctx context.Context, event string, payload any) {
	ctx, span := dispatchTracer.Start(ctx, "DispatchService.Broadcast", trace.WithAttributes(
		attribute.String("relay.event", event),
	))
	defer span.End()
	frame, err := domain.NewEnvelope(event, payload)
	if err != nil {
		span.RecordError(err)
		d.log.ErrorContext(ctx, "dispatch - broadcast - marshal failed", logging.Event(event), logging.Err(err))
		return
	}
	d.publish(ctx, domain.ScopeBroadcast, "", frame)
	clients := d.registry.All()
	span.SetAttributes(attribute.Int("relay.recipients", len(clients)))
	for _, c := range clients {
		if err := c.Send(ctx, frame); err != nil {
			d.log.WarnContext(ctx, "dispatch - broadcast - write failed", logging.Recipient(c.UserID()), logging.Err(err))
		}
	}
}

// DeliverLocal pushes an already-marshalled frame received from the
// backplane to the matching local connections. It never republishes.
func (d *DispatchService) DeliverLocal(ctx context.Context, frame domain.RelayFrame) {
	switch frame.Scope {
	case domain.ScopeUser:
		if c, ok := d.registry.Lookup(frame.Target); ok {
			_ = c.Send(ctx, []byte(frame.Envelope))
		}
	case domain.ScopeChannel:
		for _, c := range d.registry.Channel(frame.Target) {
			_ = c.Send(ctx, []byte(frame.Envelope))
		}
	case domain.ScopeBroadcast:
		for _, c := range d.registry.All() {
			_ = c.Send(ctx, []byte(frame.Envelope))
		}
	}
}

func (d *DispatchService) publish(ctx context.Context, scope, target string, envelope []byte) {
	if d.bus == nil {
		return
	}
	frame := domain.RelayFrame{
		Origin:   d.origin,
		Scope:    scope,
		Target:   target,
		Envelope: envelope,
	}
	raw, _ := json.Marshal(frame)
	if err := d.bus.Publish(ctx, BackplaneChannel, raw); err != nil {
		// Backplane loss degrades to single-instance delivery.
		d.log.WarnContext(ctx, "dispatch - backplane publish failed", logging.Err(err))
	}
}
