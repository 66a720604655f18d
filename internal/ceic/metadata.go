package ceic

import "time"

// Named is a vendor object that is only ever displayed by name.
type Named struct {
	Name string `json:"name"`
}

// GeoItem is one entry of a series' geographical classification.
type GeoItem struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SeriesMetadata describes a single CEIC time series.
// Optional vendor fields are pointers so "absent" stays distinguishable from zero.
type SeriesMetadata struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Status               *Named     `json:"status,omitempty"`
	Frequency            *Named     `json:"frequency,omitempty"`
	Unit                 *Named     `json:"unit,omitempty"`
	Source               *Named     `json:"source,omitempty"`
	LastUpdateTime       *time.Time `json:"last_update_time,omitempty"`
	LastValue            *float64   `json:"last_value,omitempty"`
	StartDate            string     `json:"start_date,omitempty"`
	EndDate              string     `json:"end_date,omitempty"`
	NumberOfObservations int        `json:"number_of_observations,omitempty"`
	Indicators           [][]Named  `json:"indicators,omitempty"`
	GeoInfo              []GeoItem  `json:"geo_info,omitempty"`

	IsForecast          bool `json:"is_forecast,omitempty"`
	KeySeries           bool `json:"key_series,omitempty"`
	HasContinuousSeries bool `json:"has_continuous_series,omitempty"`
	HasVintage          bool `json:"has_vintage,omitempty"`
	NewSeries           bool `json:"new_series,omitempty"`
	HasSchedule         bool `json:"has_schedule,omitempty"`
}

// NameOf returns n.Name, or fallback when n is nil or unnamed.
func NameOf(n *Named, fallback string) string {
	if n == nil || n.Name == "" {
		return fallback
	}
	return n.Name
}

// StatusName returns the series status, or "N/A".
func (m *SeriesMetadata) StatusName() string {
	return NameOf(m.Status, "N/A")
}

// FrequencyName returns the series frequency, or "N/A".
func (m *SeriesMetadata) FrequencyName() string {
	return NameOf(m.Frequency, "N/A")
}

// SearchItem is one hit in a search page.
type SearchItem struct {
	Metadata *SeriesMetadata `json:"metadata"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Total int          `json:"total"`
	Items []SearchItem `json:"items"`
}

// Metadata returns the non-nil metadata entries of the page in order.
func (p *SearchPage) Metadata() []*SeriesMetadata {
	if p == nil {
		return nil
	}
	out := make([]*SeriesMetadata, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Metadata != nil {
			out = append(out, item.Metadata)
		}
	}
	return out
}

// envelope is the common {"data": ...} response wrapper.
type envelope[T any] struct {
	Data T `json:"data"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Session string `json:"session"`
}
