// Package types contains the JSON shapes returned by the API.
package types

import (
	"encoding/json"

	"github.com/okian/spotrank/internal/domain/model"
)

// Dataset column headers. They double as JSON keys of a Record so clients
// see the same field names as the source CSV.
const (
	ColumnName            = "Name"
	ColumnLatitude        = "Latitude"
	ColumnLongitude       = "Longitude"
	ColumnUserRating      = "User Rating"
	ColumnNumberOfRatings = "Number of Ratings"
	ColumnCurrentCapacity = "Current Capacity"
	ColumnMaxCapacity     = "Max Capacity"
)

// RequiredColumns lists the headers every dataset must provide.
var RequiredColumns = []string{
	ColumnName,
	ColumnLatitude,
	ColumnLongitude,
	ColumnUserRating,
	ColumnNumberOfRatings,
	ColumnCurrentCapacity,
	ColumnMaxCapacity,
}

// Record is a location serialized with its dataset column names.
type Record map[string]any

// NewRecord converts a location into its wire representation. Extra
// attributes never override the required columns.
func NewRecord(loc model.Location) Record {
	r := make(Record, len(RequiredColumns)+len(loc.Attributes))
	for k, v := range loc.Attributes {
		r[k] = v
	}
	r[ColumnName] = loc.Name
	r[ColumnLatitude] = loc.Latitude
	r[ColumnLongitude] = loc.Longitude
	r[ColumnUserRating] = loc.UserRating
	r[ColumnNumberOfRatings] = loc.NumberOfRatings
	r[ColumnCurrentCapacity] = loc.CurrentCapacity
	r[ColumnMaxCapacity] = loc.MaxCapacity
	return r
}

// Entry is one ranked location. It encodes as a two element JSON array
// [record, score].
type Entry struct {
	Record Record
	Score  float64
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Record, e.Score})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.Record); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Score)
}

// Explained is a ranked location with its score breakdown.
type Explained struct {
	Rank          int     `json:"rank"`
	Record        Record  `json:"record"`
	Score         float64 `json:"score"`
	DistanceMiles float64 `json:"distance_miles"`
	Rating        float64 `json:"rating"`
	Crowd         float64 `json:"crowd"`
	Location      float64 `json:"location"`
	Weights       Weights `json:"weights"`
}

// Weights mirrors model.Weights for JSON output.
type Weights struct {
	Rating   float64 `json:"rating"`
	Crowd    float64 `json:"crowd"`
	Location float64 `json:"location"`
}

// NewEntries converts a ranking to wire entries, preserving order.
func NewEntries(ranked []model.Scored) []Entry {
	out := make([]Entry, len(ranked))
	for i, s := range ranked {
		out[i] = Entry{Record: NewRecord(s.Location), Score: s.Score}
	}
	return out
}

// NewExplained converts a ranking to explained entries with 1-based ranks.
func NewExplained(ranked []model.Scored) []Explained {
	out := make([]Explained, len(ranked))
	for i, s := range ranked {
		c := s.Components
		out[i] = Explained{
			Rank:          i + 1,
			Record:        NewRecord(s.Location),
			Score:         s.Score,
			DistanceMiles: c.DistanceMiles,
			Rating:        c.Rating,
			Crowd:         c.Crowd,
			Location:      c.Location,
			Weights: Weights{
				Rating:   c.Weights.Rating,
				Crowd:    c.Weights.Crowd,
				Location: c.Weights.Location,
			},
		}
	}
	return out
}
