package models

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the canonical string form of an inclusion date.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ReviewAfter is how old an inclusion date may get before the entry is
// flagged for review.
const ReviewAfter = 180 * 24 * time.Hour

// DefaultCoords is used whenever a maps link carries no coordinates (São Paulo, Sé).
var DefaultCoords = Coords{Lat: -23.5505, Lng: -46.6333}

type Place struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	InstagramURL  string    `json:"instagramUrl" bson:"instagram_url"`
	Neighborhood  string    `json:"neighborhood" bson:"neighborhood"`
	MapsURL       string    `json:"mapsUrl" bson:"maps_url"`
	Coords        Coords    `json:"coords" bson:"coords"`
	Tags          Tags      `json:"tags" bson:"tags"`
	InclusionDate time.Time `json:"inclusionDate" bson:"inclusion_date"`
}

type Coords struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Tags is fixed-shape on purpose: every place carries all eight flags.
type Tags struct {
	Club        bool `json:"club" bson:"club"`
	Boteco      bool `json:"boteco" bson:"boteco"`
	GoodFood    bool `json:"goodFood" bson:"good_food"`
	Date        bool `json:"date" bson:"date"`
	Dancing     bool `json:"dancing" bson:"dancing"`
	Birthday    bool `json:"birthday" bson:"birthday"`
	Beer600     bool `json:"beer600" bson:"beer600"`
	GayFriendly bool `json:"gayFriendly" bson:"gay_friendly"`
}

// FormatTimestamp renders t in TimestampLayout, always in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NeedsReview reports whether the place was included more than ReviewAfter before now.
func (p Place) NeedsReview(now time.Time) bool {
	return now.Sub(p.InclusionDate) > ReviewAfter
}

func (p Place) MarshalJSON() ([]byte, error) {
	type place Place
	return json.Marshal(struct {
		place
		InclusionDate string `json:"inclusionDate"`
	}{
		place:         place(p),
		InclusionDate: FormatTimestamp(p.InclusionDate),
	})
}

// PlaceView is a place annotated for one view pass. Distance is in
// kilometers and nil when no user position is known.
type PlaceView struct {
	Place
	Distance    *float64 `json:"distance"`
	NeedsReview bool     `json:"needsReview"`
}

func (v PlaceView) MarshalJSON() ([]byte, error) {
	placeJSON, err := json.Marshal(v.Place)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(placeJSON, &fields); err != nil {
		return nil, err
	}
	distance, err := json.Marshal(v.Distance)
	if err != nil {
		return nil, err
	}
	fields["distance"] = distance
	fields["needsReview"] = json.RawMessage("false")
	if v.NeedsReview {
		fields["needsReview"] = json.RawMessage("true")
	}
	return json.Marshal(fields)
}
