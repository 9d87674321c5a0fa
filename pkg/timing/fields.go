package timing

import (
	"strconv"
	"strings"
)

// Fragment families the provider uses per driver. The key of a fragment is
// the family followed by the driver id, e.g. "r_data_17".
const (
	FamilyRace       = "r_data_"
	FamilyQualifying = "q_data_"
	FamilyRaceLaps   = "rl_data_"
	FamilyQualLaps   = "ql_data_"
)

// Source is one candidate location of a field: a fragment family and a CSS
// selector inside it. "{id}" in the selector is replaced with the driver id.
type Source struct {
	Family   string
	Selector string
}

// Priority lists, highest first, the sources consulted for each field.
var (
	CurrentLapSources = []Source{
		{FamilyRace, "#lapsr_{id}"},
		{FamilyQualifying, ".laps"},
	}
	LastLapTimeSources = []Source{
		{FamilyRace, "#lastlapr_{id}"},
		{FamilyQualifying, "#lastlap_{id}"},
		{FamilyRaceLaps, ".lastlap"},
	}
	BestLapTimeSources = []Source{
		{FamilyRace, ".bestlapr"},
		{FamilyQualifying, "#bestlap_{id}"},
		{FamilyQualLaps, ".bestlap"},
	}
)

// FieldResolver extracts normalized fields for a driver from an event.
type FieldResolver struct {
	Extractor TextExtractor
}

// NewFieldResolver returns a resolver using the goquery extractor.
func NewFieldResolver() *FieldResolver {
	return &FieldResolver{Extractor: NewHTMLExtractor()}
}

// Resolve returns the fields for id. Each field takes the first non-empty
// value across its sources. A current lap that is not an integer is absent.
func (r *FieldResolver) Resolve(evt *RawEvent, id DriverID) Fields {
	var f Fields
	if lap, ok := r.firstNonEmpty(evt, id, CurrentLapSources); ok {
		if n, err := strconv.Atoi(lap); err == nil {
			f.CurrentLap = &n
		}
	}
	if t, ok := r.firstNonEmpty(evt, id, LastLapTimeSources); ok {
		f.LastLapTime = &t
	}
	if t, ok := r.firstNonEmpty(evt, id, BestLapTimeSources); ok {
		f.BestLapTime = &t
	}
	return f
}

func (r *FieldResolver) firstNonEmpty(evt *RawEvent, id DriverID, sources []Source) (string, bool) {
	for _, src := range sources {
		fragment, ok := evt.String(src.Family + string(id))
		if !ok {
			continue
		}
		selector := strings.ReplaceAll(src.Selector, "{id}", string(id))
		if text, found := r.Extractor.Extract(fragment, selector); found && text != "" {
			return text, true
		}
	}
	return "", false
}
