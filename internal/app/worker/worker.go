package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/contracts"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/pkg/logging"
)

// RelayWorker consumes the pub/sub backplane and re-emits frames published
// by sibling instances to this instance's local connections. Frames this
// instance published itself are skipped; local delivery already happened in
// the dispatcher.
type RelayWorker struct {
	log        *slog.Logger
	bus        contracts.EventBus
	dispatcher *services.DispatchService
	instanceID string
}

func NewRelayWorker(
	log *slog.Logger,
	bus contracts.EventBus,
	dispatcher *services.DispatchService,
	instanceID string,
) *RelayWorker {
	return &RelayWorker{
		log:        log,
		bus:        bus,
		dispatcher: dispatcher,
		instanceID: instanceID,
	}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	if err := w.bus.Subscribe(ctx, services.BackplaneChannel, w.handleFrame); err != nil {
		w.log.ErrorContext(ctx, "relay worker - subscribe failed", logging.Err(err))
		return err
	}
	w.log.InfoContext(ctx, "relay worker - subscribed", slog.String("channel", services.BackplaneChannel))
	return nil
}

func (w *RelayWorker) handleFrame(ctx context.Context, data []byte) error {
	var frame domain.RelayFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		w.log.Error("relay worker - malformed frame", logging.Err(err))
		return err
	}
	if frame.Origin == w.instanceID {
		return nil
	}
	w.dispatcher.DeliverLocal(ctx, frame)
	return nil
}
