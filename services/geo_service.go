package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"roles-server/models"
)

const (
	earthRadiusKm = 6371.0
	directionsURL = "https://www.google.com/maps/dir/"
)

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine computes the great-circle distance between two points in kilometers
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	dLat := lat2Rad - lat1Rad
	dLon := toRadians(lon2) - toRadians(lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// MatchesSearch is a case-insensitive substring match on name or neighborhood.
func MatchesSearch(place models.Place, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(place.Name), term) ||
		strings.Contains(strings.ToLower(place.Neighborhood), term)
}

// MatchesTags requires every active filter to be set on the place.
func MatchesTags(place models.Place, filters []models.FilterKey) bool {
	for _, f := range filters {
		if !place.Tags.Has(f) {
			return false
		}
	}
	return true
}

// ComputeView filters, annotates and orders places for display. With a
// position, places are sorted nearest first; without one, newest first.
// Both sorts are stable.
func ComputeView(places []models.Place, term string, filters []models.FilterKey, pos *models.Coords) []models.PlaceView {
	views := make([]models.PlaceView, 0, len(places))
	for _, p := range places {
		if !MatchesSearch(p, term) || !MatchesTags(p, filters) {
			continue
		}
		v := models.PlaceView{Place: p}
		if pos != nil {
			v.Distance = DistanceTo(*pos, p)
		}
		views = append(views, v)
	}

	if pos != nil {
		sort.SliceStable(views, func(i, j int) bool {
			return distanceKey(views[i]) < distanceKey(views[j])
		})
	} else {
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].InclusionDate.After(views[j].InclusionDate)
		})
	}
	return views
}

func distanceKey(v models.PlaceView) float64 {
	if v.Distance == nil {
		return math.Inf(1)
	}
	return *v.Distance
}

// DistanceTo is the distance in km from pos to the place, nil when it is
// not a finite number.
func DistanceTo(pos models.Coords, p models.Place) *float64 {
	d := Haversine(pos.Lat, pos.Lng, p.Coords.Lat, p.Coords.Lng)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return nil
	}
	return &d
}

// MarkForReview sets NeedsReview on every view as of now.
func MarkForReview(views []models.PlaceView, now time.Time) {
	for i := range views {
		views[i].NeedsReview = views[i].Place.NeedsReview(now)
	}
}

// RouteURL builds a Google Maps directions link between two points.
func RouteURL(from, to models.Coords) string {
	return directionsURL + "?api=1&origin=" + formatCoords(from) + "&destination=" + formatCoords(to)
}

func formatCoords(c models.Coords) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
