package service

import (
	"github.com/webitel/screens-rating/internal/adapter/liferay"
	"github.com/webitel/screens-rating/internal/domain/model"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		NewEntryDeleterFactory,
		fx.Annotate(
			NewScreenlets,
			fx.As(new(Screener)),
		),
	),

	// [DECORATION_LAYER] Intercept stubs to add cross-cutting concerns
	fx.Decorate(DecorateEntryDeleters),
)

// NewEntryDeleterFactory binds the portal stubs to the interactor contract.
func NewEntryDeleterFactory(f *liferay.Factory) EntryDeleterFactory {
	return func(identity model.OperationIdentity) (EntryDeleter, error) {
		stub, err := f.NewRatingsEntryService(identity)
		if err != nil {
			return nil, err
		}
		return stub, nil
	}
}
