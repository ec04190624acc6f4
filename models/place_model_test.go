package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceJSON(t *testing.T) {
	p := Place{
		ID:            "1-Bar",
		Name:          "Bar",
		Coords:        DefaultCoords,
		Tags:          Tags{Club: true},
		InclusionDate: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2023-03-05T00:00:00.000Z", got["inclusionDate"])
	assert.Equal(t, "1-Bar", got["id"])

	tags := got["tags"].(map[string]any)
	assert.Len(t, tags, 8)
	assert.Equal(t, true, tags["club"])

	d := 2.5
	data, err = json.Marshal(PlaceView{Place: p, Distance: &d})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2.5, got["distance"])
	assert.Equal(t, "Bar", got["name"])

	data, err = json.Marshal(PlaceView{Place: p})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"distance":null`)
	assert.Contains(t, string(data), `"needsReview":false`)

	data, err = json.Marshal(PlaceView{Place: p, NeedsReview: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"needsReview":true`)
}

func TestNeedsReview(t *testing.T) {
	included := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Place{InclusionDate: included}

	assert.False(t, p.NeedsReview(included))
	assert.False(t, p.NeedsReview(included.Add(ReviewAfter)))
	assert.True(t, p.NeedsReview(included.Add(ReviewAfter+time.Second)))
	assert.False(t, p.NeedsReview(included.Add(-time.Hour)))
}

func TestParseFilterKeys(t *testing.T) {
	keys, err := ParseFilterKeys([]string{"club,dancing", " beer600 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []FilterKey{FilterClub, FilterDancing, FilterBeer600}, keys)

	_, err = ParseFilterKeys([]string{"club,karaoke"})
	assert.Error(t, err)
}

func TestTagsSetHas(t *testing.T) {
	var tags Tags
	for _, k := range FilterKeys {
		assert.False(t, tags.Has(k))
		tags = tags.Set(k, true)
		assert.True(t, tags.Has(k))
	}
	assert.Equal(t, Tags{true, true, true, true, true, true, true, true}, tags)
	assert.False(t, tags.Has("karaoke"))
}
