// Package app models one browsing session as a plain value with pure
// transitions. Asynchronous work completes into events fed to Reduce.
package app

import (
	"roles-server/i18n"
	"roles-server/models"
	"roles-server/services"
)

type View string

const (
	ViewHome      View = "home"
	ViewDetails   View = "details"
	ViewFavorites View = "favorites"
	ViewSettings  View = "settings"
)

type State struct {
	View       View
	Selected   *models.Place
	Lang       i18n.Language
	IsAdmin    bool
	AdminError bool

	SearchTerm    string
	ActiveFilters []models.FilterKey

	Places  []models.Place
	Loading bool
	LoadErr error

	Position   *models.Coords
	GeoLoading bool
	GeoErr     error
}

// Initial is the state before either one-shot task has resolved.
func Initial(lang i18n.Language) State {
	return State{
		View:       ViewHome,
		Lang:       lang,
		Loading:    true,
		GeoLoading: true,
	}
}

// Event is anything that moves the state forward.
type Event interface {
	apply(State) State
}

// Reduce returns the state after ev. s is not modified.
func Reduce(s State, ev Event) State {
	if ev == nil {
		return s
	}
	return ev.apply(s)
}

type PlacesLoaded struct{ Places []models.Place }

func (e PlacesLoaded) apply(s State) State {
	s.Places = e.Places
	s.Loading = false
	s.LoadErr = nil
	return s
}

type PlacesFailed struct{ Err error }

func (e PlacesFailed) apply(s State) State {
	s.Loading = false
	s.LoadErr = e.Err
	return s
}

type PositionResolved struct{ Position models.Coords }

func (e PositionResolved) apply(s State) State {
	pos := e.Position
	s.Position = &pos
	s.GeoLoading = false
	s.GeoErr = nil
	return s
}

type PositionFailed struct{ Err error }

func (e PositionFailed) apply(s State) State {
	s.Position = nil
	s.GeoLoading = false
	s.GeoErr = e.Err
	return s
}

type SearchChanged struct{ Term string }

func (e SearchChanged) apply(s State) State {
	s.SearchTerm = e.Term
	return s
}

// FilterToggled adds the filter when inactive and removes it otherwise.
type FilterToggled struct{ Key models.FilterKey }

func (e FilterToggled) apply(s State) State {
	next := make([]models.FilterKey, 0, len(s.ActiveFilters)+1)
	found := false
	for _, k := range s.ActiveFilters {
		if k == e.Key {
			found = true
			continue
		}
		next = append(next, k)
	}
	if !found {
		next = append(next, e.Key)
	}
	s.ActiveFilters = next
	return s
}

type PlaceSelected struct{ Place models.Place }

func (e PlaceSelected) apply(s State) State {
	p := e.Place
	s.Selected = &p
	s.View = ViewDetails
	return s
}

type ViewChanged struct{ View View }

func (e ViewChanged) apply(s State) State {
	s.View = e.View
	if e.View != ViewSettings {
		s.AdminError = false
	}
	return s
}

type LanguageChanged struct{ Lang i18n.Language }

func (e LanguageChanged) apply(s State) State {
	s.Lang = e.Lang
	return s
}

// AdminLogin carries the outcome of a PIN check, not the PIN itself.
type AdminLogin struct{ Accepted bool }

func (e AdminLogin) apply(s State) State {
	s.IsAdmin = s.IsAdmin || e.Accepted
	s.AdminError = !e.Accepted
	return s
}

type AdminLogout struct{}

func (AdminLogout) apply(s State) State {
	s.IsAdmin = false
	s.AdminError = false
	return s
}

// Ready reports whether the place collection is complete and usable.
func (s State) Ready() bool {
	return !s.Loading && s.LoadErr == nil
}

// Visible runs the view engine over the loaded collection. It is empty
// while loading or after a failed load.
func (s State) Visible() []models.PlaceView {
	if !s.Ready() {
		return nil
	}
	return services.ComputeView(s.Places, s.SearchTerm, s.ActiveFilters, s.Position)
}

// Title is the translation key of the home section heading.
func (s State) Title() string {
	if s.Position != nil {
		return "nearbyPlaces"
	}
	return "latestAdditions"
}

// Notice is the translation key of the location notice, or "".
func (s State) Notice() string {
	switch {
	case s.GeoLoading:
		return "gettingLocation"
	case s.GeoErr != nil:
		return "locationError"
	}
	return ""
}

// FavoritePlaces returns the loaded places whose id is in favorites, in
// feed order. Ids with no current place are ignored.
func (s State) FavoritePlaces(favorites interface{ Contains(string) bool }) []models.Place {
	var out []models.Place
	for _, p := range s.Places {
		if favorites.Contains(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func (s State) T() i18n.Translator {
	return i18n.For(s.Lang)
}
