package ics

import (
	"fmt"
	"time"

	"deskcal/internal/datemath"
	"deskcal/internal/model"
	"deskcal/internal/validate"
)

// Skip reasons reported for occurrences that cannot become events.
const (
	ReasonAllDay   = "all-day events are not supported"
	ReasonMultiDay = "event spans more than one day"
)

// Candidate is an occurrence converted into event fields, ready to be
// handed to the event service (which still validates it).
type Candidate struct {
	UID    string       `json:"uid"`
	Fields model.Fields `json:"fields"`
}

// Skipped is an occurrence that was not converted.
type Skipped struct {
	UID     string `json:"uid"`
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

// Plan is the outcome of turning an ICS payload into event candidates.
type Plan struct {
	Candidates      []Candidate `json:"candidates"`
	Skipped         []Skipped   `json:"skipped"`
	TruncatedSeries []string    `json:"truncated_series,omitempty"`
}

// PlanConfig controls PlanImport.
type PlanConfig struct {
	Location *time.Location
	// From and HorizonDays bound recurring series to [From, From+HorizonDays].
	From        time.Time
	HorizonDays int
}

// PlanImport parses body and converts every occurrence into a day-scoped
// candidate. All-day and multi-day occurrences are skipped.
func PlanImport(origin string, body []byte, cfg PlanConfig) (Plan, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 90
	}

	parsed, err := ParseICS(origin, body)
	if err != nil {
		return Plan{}, fmt.Errorf("parse ics: %w", err)
	}

	from := cfg.From.In(cfg.Location)
	rangeStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, cfg.Location)
	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		Location:   cfg.Location,
		RangeStart: rangeStart,
		RangeEnd:   rangeStart.AddDate(0, 0, cfg.HorizonDays),
	})
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Candidates:      make([]Candidate, 0, len(expanded.Occurrences)),
		Skipped:         make([]Skipped, 0),
		TruncatedSeries: expanded.TruncatedEvents,
	}
	for _, occ := range expanded.Occurrences {
		fields, reason := toFields(occ)
		if reason != "" {
			plan.Skipped = append(plan.Skipped, Skipped{UID: occ.UID, Summary: occ.Summary, Reason: reason})
			continue
		}
		plan.Candidates = append(plan.Candidates, Candidate{UID: occ.UID, Fields: fields})
	}
	return plan, nil
}

// toFields converts an occurrence into event fields or returns why it
// cannot be represented as a single-day event.
func toFields(occ Occurrence) (model.Fields, string) {
	if occ.AllDay {
		return model.Fields{}, ReasonAllDay
	}
	if !datemath.IsSameDay(occ.Start, occ.End) {
		return model.Fields{}, ReasonMultiDay
	}
	color := occ.Color
	if !validate.IsHexColor(color) {
		// Named colors fall back to the default color.
		color = ""
	}
	return model.Fields{
		Title:       occ.Summary,
		Description: occ.Description,
		Date:        datemath.FormatISO(datemath.DateOf(occ.Start)),
		StartTime:   datemath.FormatClock(occ.Start.Hour()*60 + occ.Start.Minute()),
		EndTime:     datemath.FormatClock(occ.End.Hour()*60 + occ.End.Minute()),
		Color:       color,
	}, ""
}
