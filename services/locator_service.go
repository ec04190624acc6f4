package services

import (
	"context"
	"math"
	"strconv"

	"roles-server/models"
	"roles-server/utils/errors"
)

// Locator is the geolocation collaborator, resolved once per session.
type Locator interface {
	CurrentPosition(ctx context.Context) (models.Coords, error)
}

// StaticLocator answers with a fixed position, or ErrPositionUnavailable
// when it has none.
type StaticLocator struct {
	Position *models.Coords
}

func (l StaticLocator) CurrentPosition(_ context.Context) (models.Coords, error) {
	if l.Position == nil {
		return models.Coords{}, errors.ErrPositionUnavailable
	}
	return *l.Position, nil
}

// ParsePosition reads a lat/lon pair as supplied by a client. present is
// false when both are empty; err is ErrPositionUnavailable when they are
// given but unusable.
func ParsePosition(lat, lon string) (pos *models.Coords, present bool, err error) {
	if lat == "" && lon == "" {
		return nil, false, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, true, errors.ErrPositionUnavailable
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, true, errors.ErrPositionUnavailable
	}
	if math.IsNaN(la) || math.IsNaN(lo) || la < -90 || la > 90 || lo < -180 || lo > 180 {
		return nil, true, errors.ErrPositionUnavailable
	}
	return &models.Coords{Lat: la, Lng: lo}, true, nil
}
