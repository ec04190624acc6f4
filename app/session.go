package app

import (
	"context"

	"go.uber.org/zap"

	"roles-server/i18n"
	"roles-server/models"
	"roles-server/services"
)

// Session owns a State and the two one-shot tasks that feed it. All
// state changes happen on the goroutine calling Run or Dispatch.
type Session struct {
	state    State
	ingester services.Ingester
	locator  services.Locator
	log      *zap.SugaredLogger
}

func NewSession(lang i18n.Language, ingester services.Ingester, locator services.Locator, log *zap.SugaredLogger) *Session {
	return &Session{
		state:    Initial(lang),
		ingester: ingester,
		locator:  locator,
		log:      log,
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Dispatch(ev Event) State {
	s.state = Reduce(s.state, ev)
	return s.state
}

// Run starts the ingest and locate tasks independently and applies their
// completions as they arrive. It returns when both have resolved or ctx
// ends. A position failure never affects the places.
func (s *Session) Run(ctx context.Context) State {
	places := Go(ctx, s.ingester.Ingest)
	position := Go(ctx, s.locator.CurrentPosition)

	placesDone, positionDone := places.Done(), position.Done()
	for placesDone != nil || positionDone != nil {
		select {
		case <-placesDone:
			placesDone = nil
			ps, err := places.Wait(ctx)
			if err != nil {
				s.log.Errorf("Failed to load places: %v", err)
				s.Dispatch(PlacesFailed{Err: err})
				continue
			}
			s.Dispatch(PlacesLoaded{Places: ps})
		case <-positionDone:
			positionDone = nil
			pos, err := position.Wait(ctx)
			if err != nil {
				s.log.Infof("Location unavailable: %v", err)
				s.Dispatch(PositionFailed{Err: err})
				continue
			}
			s.Dispatch(PositionResolved{Position: pos})
		case <-ctx.Done():
			return s.state
		}
	}
	return s.state
}

// ToggleFilter is a convenience over Dispatch(FilterToggled{...}).
func (s *Session) ToggleFilter(key models.FilterKey) State {
	return s.Dispatch(FilterToggled{Key: key})
}
