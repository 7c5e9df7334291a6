package events

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/domain/registry"
)

// ResultHandler feeds result events from the bus into the hub.
type ResultHandler struct {
	hub    registry.Hubber
	seen   *lru.Cache[string, struct{}]
	logger *slog.Logger
}

// NewResultHandler remembers the last dedupSize delivered event ids.
func NewResultHandler(hub registry.Hubber, dedupSize int, logger *slog.Logger) (*ResultHandler, error) {
	// [MEMORY_MANAGEMENT] Bounded window of recently delivered ids.
	seen, err := lru.New[string, struct{}](dedupSize)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	return &ResultHandler{hub: hub, seen: seen, logger: logger}, nil
}

// [ON_RATING_ENTRY_DELETED]
// Checks that the payload agrees with the routing metadata before it reaches a screen.
func (h *ResultHandler) OnRatingEntryDeletedV1(ctx context.Context, target model.OperationIdentity, ev *event.DeleteRatingEvent) (event.Eventer, error) {
	if ev.GetTarget() != target {
		h.logger.Warn("TARGET_MISMATCH",
			"metadata_target", target,
			"payload_target", ev.GetTarget(),
			"event_id", ev.GetID(),
		)
		return nil, nil
	}
	return ev, nil
}
