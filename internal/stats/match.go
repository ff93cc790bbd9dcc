package stats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Match is a JSON-encoded match record as returned by /api/game_stats.
// The map and players fields may arrive either structured or as JSON-encoded
// text, depending on how the row was written; both forms decode.
type Match struct {
	ID          int        `json:"id"`
	GameVersion string     `json:"game_version"`
	Map         MapField   `json:"map"`
	GameType    string     `json:"game_type"`
	Duration    int        `json:"duration"`
	Winner      string     `json:"winner"`
	Players     PlayerList `json:"players"`
	Timestamp   string     `json:"timestamp"`
}

// Player is one entry of a match's player list.
type Player struct {
	Name               string `json:"name"`
	Civilization       int    `json:"civilization"`
	Winner             bool   `json:"winner"`
	Score              int    `json:"score"`
	MilitaryScore      int    `json:"military_score"`
	EconomyScore       int    `json:"economy_score"`
	TechnologyScore    int    `json:"technology_score"`
	SocietyScore       int    `json:"society_score"`
	UnitsKilled        int    `json:"units_killed"`
	BuildingsDestroyed int    `json:"buildings_destroyed"`
	ResourcesGathered  int    `json:"resources_gathered"`
	RelicsCollected    int    `json:"relics_collected"`
	FastestCastleAge   int    `json:"fastest_castle_age"`
	FastestImperialAge int    `json:"fastest_imperial_age"`
}

// Time parses the record's timestamp. Records with unparseable timestamps
// report the zero time and sort last.
func (m *Match) Time() time.Time {
	t, err := ParseTimestamp(m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// timestampLayout is the near-ISO form the stats source emits: a space
// instead of the T separator.
const timestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp converts a stats-source timestamp into a time.Time. Only the
// first space is substituted, so strings that already carry a T separator
// parse unchanged.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, strings.Replace(s, " ", "T", 1))
}

// MapField is a match's map, which arrives in one of three shapes: a
// structured {name, size} object, a JSON-encoded string of such an object, or
// a bare string. The bare string survives in Raw.
type MapField struct {
	Name string
	Size string
	Raw  string
}

type mapObject struct {
	Name string `json:"name"`
	Size any    `json:"size"`
}

func (m *MapField) UnmarshalJSON(data []byte) error {
	var obj mapObject
	if err := json.Unmarshal(data, &obj); err == nil {
		m.Name = obj.Name
		m.Size = sizeString(obj.Size)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("map field: %w", err)
	}
	// A malformed embedded object is not an error: the original string is
	// kept and displayed as-is.
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		m.Name = obj.Name
		m.Size = sizeString(obj.Size)
		return nil
	}
	m.Raw = s
	return nil
}

func (m MapField) MarshalJSON() ([]byte, error) {
	if m.Raw != "" {
		return json.Marshal(m.Raw)
	}
	return json.Marshal(struct {
		Name string `json:"name"`
		Size string `json:"size"`
	}{m.Name, m.Size})
}

// Display renders the map for the match card.
func (m MapField) Display() string {
	switch {
	case m.Raw != "":
		return m.Raw
	case m.Name == "":
		return "Unknown"
	case m.Size != "":
		return fmt.Sprintf("%s (%s)", m.Name, m.Size)
	default:
		return m.Name
	}
}

// sizeString tolerates both string and numeric map sizes.
func sizeString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// PlayerList is a match's player sequence, which arrives either as a JSON
// array or as a JSON-encoded string of one. A string that fails to decode
// yields an empty list, which the displayable filter then drops.
type PlayerList []Player

func (p *PlayerList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
	}
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		*p = PlayerList{}
		return nil
	}
	*p = players
	return nil
}
