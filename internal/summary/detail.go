package summary

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wexinc/sourcecheck/internal/ceic"
)

// Flag is a named yes/no attribute of a series.
type Flag struct {
	Name  string `json:"name"  yaml:"name"`
	Value bool   `json:"value" yaml:"value"`
}

// Detail is the display-ready view of a single series.
type Detail struct {
	Name string `json:"name" yaml:"name"`

	// Key metrics
	LastValue  string `json:"last_value"  yaml:"last_value"`
	LastUpdate string `json:"last_update" yaml:"last_update"`
	Status     string `json:"status"      yaml:"status"`

	// Core attributes
	SeriesID     string `json:"series_id"    yaml:"series_id"`
	Unit         string `json:"unit"         yaml:"unit"`
	Frequency    string `json:"frequency"    yaml:"frequency"`
	Source       string `json:"source"       yaml:"source"`
	StartDate    string `json:"start_date"   yaml:"start_date"`
	EndDate      string `json:"end_date"     yaml:"end_date"`
	Observations string `json:"observations" yaml:"observations"`

	// Classification and geography
	IndicatorPaths []string `json:"indicator_paths,omitempty" yaml:"indicator_paths,omitempty"`
	HasGeo         bool     `json:"has_geo"                   yaml:"has_geo"`
	Country        string   `json:"country"                   yaml:"country"`
	Regions        []string `json:"regions,omitempty"         yaml:"regions,omitempty"`

	Flags []Flag `json:"flags" yaml:"flags"`
}

// BuildDetail prepares meta for display. It returns false for a nil meta.
func BuildDetail(meta *ceic.SeriesMetadata) (Detail, bool) {
	if meta == nil {
		return Detail{}, false
	}

	d := Detail{
		Name:         orNA(meta.Name),
		LastValue:    NotAvailable,
		LastUpdate:   NotAvailable,
		Status:       meta.StatusName(),
		SeriesID:     orNA(meta.ID),
		Unit:         ceic.NameOf(meta.Unit, NotAvailable),
		Frequency:    meta.FrequencyName(),
		Source:       ceic.NameOf(meta.Source, NotAvailable),
		StartDate:    orNA(meta.StartDate),
		EndDate:      orNA(meta.EndDate),
		Observations: FormatCount(meta.NumberOfObservations),
		Country:      NotAvailable,
	}
	if meta.LastValue != nil {
		d.LastValue = FormatValue(*meta.LastValue)
	}
	if meta.LastUpdateTime != nil {
		d.LastUpdate = formatDate(*meta.LastUpdateTime, MinuteLayout)
	}

	for _, path := range meta.Indicators {
		names := make([]string, len(path))
		for i, node := range path {
			names[i] = ceic.NameOf(&node, "Unknown")
		}
		d.IndicatorPaths = append(d.IndicatorPaths, strings.Join(names, " -> "))
	}

	d.HasGeo = len(meta.GeoInfo) > 0
	for _, geo := range meta.GeoInfo {
		name := orUnknown(geo.Name)
		switch geo.Type {
		case "COUNTRY":
			d.Country = name
		case "REGION":
			d.Regions = append(d.Regions, name)
		}
	}
	sort.Strings(d.Regions)

	d.Flags = []Flag{
		{"Is Forecast", meta.IsForecast},
		{"Is Key Series", meta.KeySeries},
		{"Has Continuous Series", meta.HasContinuousSeries},
		{"Has Vintage Data", meta.HasVintage},
		{"Is New Series", meta.NewSeries},
		{"Has Schedule", meta.HasSchedule},
	}
	return d, true
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// WriteText renders d as plain text sections.
func (d Detail) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Details for: %s\n\n", d.Name)

	b.WriteString("Key Metrics\n")
	fmt.Fprintf(&b, "  Last Value:   %s\n", d.LastValue)
	fmt.Fprintf(&b, "  Last Update:  %s\n", d.LastUpdate)
	fmt.Fprintf(&b, "  Status:       %s\n\n", d.Status)

	b.WriteString("Core Attributes\n")
	fmt.Fprintf(&b, "  Series ID:    %s\n", d.SeriesID)
	fmt.Fprintf(&b, "  Unit:         %s\n", d.Unit)
	fmt.Fprintf(&b, "  Frequency:    %s\n", d.Frequency)
	fmt.Fprintf(&b, "  Source:       %s\n", d.Source)
	fmt.Fprintf(&b, "  Date Range:   %s to %s\n", d.StartDate, d.EndDate)
	fmt.Fprintf(&b, "  Observations: %s\n\n", d.Observations)

	b.WriteString("Indicator Path\n")
	if len(d.IndicatorPaths) == 0 {
		b.WriteString("  No indicator path information available.\n")
	}
	for _, p := range d.IndicatorPaths {
		fmt.Fprintf(&b, "  - %s\n", p)
	}
	b.WriteString("\nGeographical Information\n")
	if !d.HasGeo {
		b.WriteString("  No geographical information available.\n")
	} else {
		fmt.Fprintf(&b, "  Country: %s\n", d.Country)
		if len(d.Regions) > 0 {
			b.WriteString("  Associated Regions:\n")
			for _, r := range d.Regions {
				fmt.Fprintf(&b, "    - %s\n", r)
			}
		}
	}

	b.WriteString("\nTechnical Flags\n")
	for _, f := range d.Flags {
		v := "No"
		if f.Value {
			v = "Yes"
		}
		fmt.Fprintf(&b, "  %-22s %s\n", f.Name+":", v)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
