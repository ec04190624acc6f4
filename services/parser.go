package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"roles-server/models"
)

// Feed columns, 0-indexed.
const (
	colName         = 0
	colInstagram    = 1
	colNeighborhood = 2
	colMaps         = 3
	colFirstTag     = 4
	colDate         = 12
)

var coordsPattern = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)

// ParseBoolean accepts TRUE and SIM in any case. Anything else is false.
func ParseBoolean(value string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	return v == "TRUE" || v == "SIM"
}

// ParseDate turns DD/MM/YYYY into UTC midnight of that day. Missing or
// non-numeric parts yield now.
func ParseDate(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now
	}
	parts := strings.Split(value, "/")
	if len(parts) < 3 {
		return now
	}
	var nums [3]int
	for i := 0; i < 3; i++ {
		p := strings.TrimSpace(parts[i])
		if p == "" {
			return now
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return now
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	if year >= 0 && year <= 99 {
		year += 1900
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// CoordsFromURL extracts the "@lat,lng" pair maps links carry, falling
// back to DefaultCoords.
func CoordsFromURL(url string) models.Coords {
	if url == "" {
		return models.DefaultCoords
	}
	m := coordsPattern.FindStringSubmatch(url)
	if len(m) != 3 {
		return models.DefaultCoords
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.DefaultCoords
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return models.DefaultCoords
	}
	return models.Coords{Lat: lat, Lng: lng}
}

// ParseRow builds a place from one split feed line. ordinal is the 1-based
// position of the line among non-blank data lines. ok is false when the
// name is empty.
func ParseRow(fields []string, ordinal int, now time.Time) (place models.Place, ok bool) {
	col := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	name := col(colName)
	mapsURL := col(colMaps)

	var tags models.Tags
	for i, key := range models.FilterKeys {
		tags = tags.Set(key, ParseBoolean(col(colFirstTag+i)))
	}

	place = models.Place{
		ID:            fmt.Sprintf("%d-%s", ordinal, name),
		Name:          name,
		InstagramURL:  col(colInstagram),
		Neighborhood:  col(colNeighborhood),
		MapsURL:       mapsURL,
		Coords:        CoordsFromURL(mapsURL),
		Tags:          tags,
		InclusionDate: ParseDate(col(colDate), now),
	}
	return place, name != ""
}
