package stats

import (
	"encoding/json"
	"sort"

	"github.com/samber/lo"
)

// Decode parses a stats-source response body into match records. The tolerant
// field handling lives on the record types, so decoding is the whole of
// normalization: output order matches input order.
func Decode(body []byte) ([]Match, error) {
	var matches []Match
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// Displayable drops records whose player list came out empty. Such records
// are incomplete or corrupt upstream and are excluded silently rather than
// treated as an error.
func Displayable(matches []Match) []Match {
	return lo.Filter(matches, func(m Match, _ int) bool {
		return len(m.Players) > 0
	})
}

// SortByRecency orders matches newest first. Ties keep their fetch order.
func SortByRecency(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Time().After(matches[j].Time())
	})
}
