package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/model"
)

// EntryDeleterMiddleware implements [DECORATOR_PATTERN] to add observability
// to remote dispatch without touching the interactor.
type EntryDeleterMiddleware struct {
	Next     EntryDeleter
	Identity model.OperationIdentity
	Logger   *slog.Logger
}

// DecorateEntryDeleters wraps every stub produced by next with dispatch logging.
func DecorateEntryDeleters(next EntryDeleterFactory, logger *slog.Logger) EntryDeleterFactory {
	return func(identity model.OperationIdentity) (EntryDeleter, error) {
		d, err := next(identity)
		if err != nil {
			logger.Warn("STUB_UNAVAILABLE", "identity", identity, "err", err)
			return nil, err
		}
		return &EntryDeleterMiddleware{Next: d, Identity: identity, Logger: logger}, nil
	}
}

func (m *EntryDeleterMiddleware) DeleteEntry(ctx context.Context, className string, classPK int64) (uuid.UUID, error) {
	start := time.Now()

	requestID, err := m.Next.DeleteEntry(ctx, className, classPK)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, model.ErrInvalidRequest) {
			level = slog.LevelWarn
		}
		m.Logger.Log(ctx, level, "DISPATCH_FAILED",
			"identity", m.Identity,
			"class_name", className,
			"class_pk", classPK,
			"err", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return requestID, err
	}

	m.Logger.Debug("DISPATCHED",
		"identity", m.Identity,
		"request_id", requestID,
		"class_name", className,
		"class_pk", classPK,
	)
	return requestID, nil
}
