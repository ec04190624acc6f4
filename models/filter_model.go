package models

import (
	"fmt"
	"strings"
)

// FilterKey names one of the eight tags.
type FilterKey string

const (
	FilterClub        FilterKey = "club"
	FilterBoteco      FilterKey = "boteco"
	FilterGoodFood    FilterKey = "goodFood"
	FilterDate        FilterKey = "date"
	FilterDancing     FilterKey = "dancing"
	FilterBirthday    FilterKey = "birthday"
	FilterBeer600     FilterKey = "beer600"
	FilterGayFriendly FilterKey = "gayFriendly"
)

// FilterKeys lists the tags in feed column order (columns 4 to 11).
var FilterKeys = []FilterKey{
	FilterClub,
	FilterBoteco,
	FilterGoodFood,
	FilterDate,
	FilterDancing,
	FilterBirthday,
	FilterBeer600,
	FilterGayFriendly,
}

// Has reports whether the tag named by key is set.
func (t Tags) Has(key FilterKey) bool {
	switch key {
	case FilterClub:
		return t.Club
	case FilterBoteco:
		return t.Boteco
	case FilterGoodFood:
		return t.GoodFood
	case FilterDate:
		return t.Date
	case FilterDancing:
		return t.Dancing
	case FilterBirthday:
		return t.Birthday
	case FilterBeer600:
		return t.Beer600
	case FilterGayFriendly:
		return t.GayFriendly
	}
	return false
}

// Set returns a copy of t with the tag named by key set to v.
func (t Tags) Set(key FilterKey, v bool) Tags {
	switch key {
	case FilterClub:
		t.Club = v
	case FilterBoteco:
		t.Boteco = v
	case FilterGoodFood:
		t.GoodFood = v
	case FilterDate:
		t.Date = v
	case FilterDancing:
		t.Dancing = v
	case FilterBirthday:
		t.Birthday = v
	case FilterBeer600:
		t.Beer600 = v
	case FilterGayFriendly:
		t.GayFriendly = v
	}
	return t
}

func (k FilterKey) Valid() bool {
	for _, known := range FilterKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ParseFilterKeys accepts tag names as they appear in query strings,
// either repeated or comma separated. Empty items are skipped.
func ParseFilterKeys(raw []string) ([]FilterKey, error) {
	var keys []FilterKey
	for _, item := range raw {
		for _, name := range strings.Split(item, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := FilterKey(name)
			if !key.Valid() {
				return nil, fmt.Errorf("unknown tag %q", name)
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}
