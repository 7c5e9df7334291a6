package service

import (
	"log/slog"
	"sync/atomic"

	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/domain/registry"
)

// Screener is the entry point for transport handlers (HTTP, WebSocket, CLI).
type Screener interface {
	// Open builds an interactor attached to the hub. NoIdentity allocates a fresh one.
	Open(identity model.OperationIdentity, listener Listener) (*DeleteRatingInteractor, error)
	Stats() model.HubStats
}

var _ Screener = (*Screenlets)(nil)

// Screenlets creates interactors and owns identity allocation.
type Screenlets struct {
	hub      registry.Hubber
	deleters EntryDeleterFactory
	logger   *slog.Logger
	last     atomic.Int64
}

func NewScreenlets(hub registry.Hubber, deleters EntryDeleterFactory, logger *slog.Logger) *Screenlets {
	return &Screenlets{
		hub:      hub,
		deleters: deleters,
		logger:   logger,
	}
}

// NextIdentity hands out identities in increasing order, starting at 1.
func (s *Screenlets) NextIdentity() model.OperationIdentity {
	return model.OperationIdentity(s.last.Add(1))
}

func (s *Screenlets) Open(identity model.OperationIdentity, listener Listener) (*DeleteRatingInteractor, error) {
	if identity == model.NoIdentity {
		identity = s.NextIdentity()
	}
	it, err := NewDeleteRatingInteractor(identity, listener, s.deleters, s.logger)
	if err != nil {
		return nil, err
	}
	it.Attach(s.hub)
	return it, nil
}

func (s *Screenlets) Stats() model.HubStats {
	return s.hub.Stats()
}
