package view

import (
	"fmt"
	"time"

	"deskcal/internal/datemath"
	"deskcal/internal/model"
)

const (
	// MaxListedEvents is the most chips shown in a day cell before the
	// cell collapses into a count badge.
	MaxListedEvents = 3
	// ChipLabelLen is the label length at which chip text is truncated.
	ChipLabelLen = 20
)

// Weekdays are the grid column headers, Sunday first.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Chip is the compact representation of one event inside a day cell.
type Chip struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// DayCell is one slot of the month grid.
type DayCell struct {
	Day        int    `json:"day"`
	Date       string `json:"date,omitempty"` // current-month cells only
	OtherMonth bool   `json:"otherMonth"`
	Today      bool   `json:"today"`
	Label      string `json:"label,omitempty"`
	Events     []Chip `json:"events,omitempty"`
	// Badge is the event count when a day has more than MaxListedEvents.
	Badge int `json:"badge,omitempty"`
}

// MonthView is a fully laid out month ready for rendering.
type MonthView struct {
	State    ViewState `json:"state"`
	Title    string    `json:"title"`
	Weekdays []string  `json:"weekdays"`
	Weeks    int       `json:"weeks"`
	Cells    []DayCell `json:"cells"`
	Prev     ViewState `json:"prev"`
	Next     ViewState `json:"next"`
}

// GroupByDate indexes events by their ISO date, keeping input order.
func GroupByDate(events []model.Event) map[string][]model.Event {
	out := make(map[string][]model.Event)
	for _, ev := range events {
		out[ev.Date] = append(out[ev.Date], ev)
	}
	return out
}

// BuildMonth lays out the month in state. events may contain events from
// other months; only the ones in the displayed month are attached. today
// marks the matching cell.
func BuildMonth(state ViewState, events []model.Event, today datemath.Date) MonthView {
	grid := datemath.MonthGrid(state.Year, state.Month)
	byDate := GroupByDate(events)

	cells := make([]DayCell, 0, len(grid.Cells))
	for _, c := range grid.Cells {
		cell := DayCell{
			Day:        c.Date.Day,
			OtherMonth: !c.InMonth,
		}
		if c.InMonth {
			iso := datemath.FormatISO(c.Date)
			cell.Date = iso
			cell.Today = c.Date == today
			cell.Label = fmt.Sprintf("%s %d, %d", datemath.MonthName(state.Month), c.Date.Day, state.Year)
			attachEvents(&cell, byDate[iso])
		}
		cells = append(cells, cell)
	}

	return MonthView{
		State:    state,
		Title:    state.Title(),
		Weekdays: Weekdays,
		Weeks:    grid.Weeks(),
		Cells:    cells,
		Prev:     state.PrevMonth(),
		Next:     state.NextMonth(),
	}
}

func attachEvents(cell *DayCell, events []model.Event) {
	if len(events) == 0 {
		return
	}
	if len(events) > MaxListedEvents {
		cell.Badge = len(events)
		return
	}
	cell.Events = make([]Chip, 0, len(events))
	for _, ev := range events {
		cell.Events = append(cell.Events, Chip{
			ID:    ev.ID,
			Label: Truncate(ev.Title, ChipLabelLen),
			Title: ev.Title,
			Color: ev.Color,
		})
	}
}

// Truncate shortens text to max characters followed by "...".
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

// Today returns the current civil date in loc.
func Today(loc *time.Location) datemath.Date {
	if loc == nil {
		loc = time.Local
	}
	return datemath.DateOf(time.Now().In(loc))
}
