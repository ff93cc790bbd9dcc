// Package replay holds the ingest-side view of a parsed Age of Empires II
// replay: the stats payload a parser produces and the metadata that can be
// recovered from the replay filename alone.
package replay

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"
)

// Stats is the parsed output for one replay, as posted to /api/parse_replay.
// Map and players are kept as raw JSON so the stored row preserves whatever
// shape the parser emitted.
type Stats struct {
	ReplayFile  string          `json:"replay_file"`
	GameVersion string          `json:"game_version"`
	Map         json.RawMessage `json:"map"`
	GameType    string          `json:"game_type"`
	Duration    int             `json:"duration"`
	Winner      string          `json:"winner"`
	Players     json.RawMessage `json:"players"`
	Timestamp   string          `json:"timestamp"`
}

// filenameRe matches the timestamp embedded in multiplayer replay filenames,
// e.g. "MP Replay v101.103.2359.0 @2025.03.14 202116 (1).aoe2record".
var filenameRe = regexp.MustCompile(`@(\d{4})\.(\d{2})\.(\d{2}) (\d{2})(\d{2})(\d{2})`)

// TimestampFromFilename extracts the match start time from a replay filename.
// The second return is false when the filename carries no timestamp.
func TimestampFromFilename(name string) (time.Time, bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	n := make([]int, 6)
	for i := range n {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.UTC)
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] {
		// Out-of-range components (e.g. month 13) normalized away.
		return time.Time{}, false
	}
	return t, true
}
