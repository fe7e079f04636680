package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskcal/internal/datemath"
	"deskcal/internal/model"
)

func ev(id, date, title string) model.Event {
	return model.Event{ID: id, Fields: model.Fields{Title: title, Date: date, StartTime: "09:00", EndTime: "10:00", Color: "#123"}}
}

func TestViewStateNavigation(t *testing.T) {
	s := ViewState{Year: 2024, Month: time.January, SelectedEventID: "evt_1"}

	prev := s.PrevMonth()
	assert.Equal(t, 2023, prev.Year)
	assert.Equal(t, time.December, prev.Month)
	assert.Equal(t, "evt_1", prev.SelectedEventID)

	next := prev.NextMonth()
	assert.Equal(t, s, next)

	dec := ViewState{Year: 2024, Month: time.December}.NextMonth()
	assert.Equal(t, ViewState{Year: 2025, Month: time.January}, dec)

	assert.Equal(t, "March 2024", ViewState{Year: 2024, Month: time.March}.Title())
}

func TestBuildMonth_Layout(t *testing.T) {
	state := ViewState{Year: 2023, Month: time.November}
	today := datemath.Date{Year: 2023, Month: time.November, Day: 15}

	mv := BuildMonth(state, nil, today)

	require.Len(t, mv.Cells, 35)
	assert.Equal(t, 5, mv.Weeks)
	assert.Equal(t, "November 2023", mv.Title)
	assert.Equal(t, Weekdays, mv.Weekdays)
	assert.Equal(t, ViewState{Year: 2023, Month: time.October}, mv.Prev)
	assert.Equal(t, ViewState{Year: 2023, Month: time.December}, mv.Next)

	first := mv.Cells[0]
	assert.True(t, first.OtherMonth)
	assert.Equal(t, 29, first.Day)
	assert.Empty(t, first.Date)

	one := mv.Cells[3]
	assert.False(t, one.OtherMonth)
	assert.Equal(t, "2023-11-01", one.Date)
	assert.Equal(t, "November 1, 2023", one.Label)

	todays := 0
	for _, c := range mv.Cells {
		if c.Today {
			todays++
			assert.Equal(t, "2023-11-15", c.Date)
		}
	}
	assert.Equal(t, 1, todays)
}

func TestBuildMonth_TodayOutsideMonth(t *testing.T) {
	mv := BuildMonth(ViewState{Year: 2023, Month: time.November}, nil, datemath.Date{Year: 2023, Month: time.December, Day: 1})
	for _, c := range mv.Cells {
		assert.False(t, c.Today)
	}
}

func TestBuildMonth_EventsAndBadge(t *testing.T) {
	state := ViewState{Year: 2023, Month: time.November}
	events := []model.Event{
		ev("a", "2023-11-02", "A very long meeting title that overflows"),
		ev("b", "2023-11-02", "Short"),
		ev("x", "2023-12-01", "Next month"),
	}
	for i := 0; i < 4; i++ {
		events = append(events, ev(fmt.Sprintf("busy%d", i), "2023-11-03", "Busy"))
	}

	mv := BuildMonth(state, events, datemath.Date{})

	two := mv.Cells[4]
	require.Equal(t, "2023-11-02", two.Date)
	require.Len(t, two.Events, 2)
	assert.Equal(t, "A very long meeting ...", two.Events[0].Label)
	assert.Equal(t, "A very long meeting title that overflows", two.Events[0].Title)
	assert.Equal(t, "#123", two.Events[0].Color)
	assert.Zero(t, two.Badge)

	three := mv.Cells[5]
	assert.Empty(t, three.Events)
	assert.Equal(t, 4, three.Badge)

	// Filler cell for December 1st carries no events.
	last := mv.Cells[33]
	assert.True(t, last.OtherMonth)
	assert.Empty(t, last.Events)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("", 5))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc...", Truncate("abcd", 3))
	assert.Equal(t, "가나...", Truncate("가나다", 2))
}

func TestGroupByDate(t *testing.T) {
	g := GroupByDate([]model.Event{ev("a", "2024-01-01", "a"), ev("b", "2024-01-02", "b"), ev("c", "2024-01-01", "c")})
	require.Len(t, g, 2)
	assert.Equal(t, "a", g["2024-01-01"][0].ID)
	assert.Equal(t, "c", g["2024-01-01"][1].ID)
}

func TestOnDayActivated(t *testing.T) {
	s := ViewState{Year: 2024, Month: time.March}

	next, act := OnDayActivated(s, "2024-03-05", nil)
	assert.Equal(t, Action{Kind: ActionOpenAdd, Date: "2024-03-05"}, act)
	assert.Equal(t, "2024-03-05", next.SelectedDate)
	assert.Empty(t, next.SelectedEventID)

	next, act = OnDayActivated(s, "2024-03-05", []model.Event{ev("a", "2024-03-05", "A"), ev("b", "2024-03-05", "B")})
	assert.Equal(t, Action{Kind: ActionOpenEdit, Date: "2024-03-05", EventID: "a"}, act)
	assert.Equal(t, "a", next.SelectedEventID)

	// The input state is a value and stays untouched.
	assert.Empty(t, s.SelectedEventID)
}

func TestOnEventActivatedAndClose(t *testing.T) {
	s, act := OnEventActivated(ViewState{Year: 2024, Month: time.March}, "evt_9")
	assert.Equal(t, ActionOpenEdit, act.Kind)
	assert.Equal(t, "evt_9", act.EventID)
	assert.Equal(t, "evt_9", s.SelectedEventID)

	s = OnDialogClosed(s)
	assert.Empty(t, s.SelectedEventID)

	_, act = OnAddRequested(s)
	assert.Equal(t, Action{Kind: ActionOpenAdd}, act)
}
