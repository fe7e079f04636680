package view

import "deskcal/internal/model"

// ActionKind says which dialog the presentation layer should open.
type ActionKind string

const (
	ActionOpenAdd  ActionKind = "open_add"
	ActionOpenEdit ActionKind = "open_edit"
)

// Action is the result of a user interaction that the presentation layer
// carries out (open a dialog prefilled with Date, or for EventID).
type Action struct {
	Kind    ActionKind `json:"kind"`
	Date    string     `json:"date,omitempty"`
	EventID string     `json:"eventId,omitempty"`
}

// OnDayActivated handles a click or Enter/Space on a day cell. A day
// with events opens its first event for editing; an empty day opens the
// add dialog for that date.
func OnDayActivated(s ViewState, date string, eventsOnDay []model.Event) (ViewState, Action) {
	s.SelectedDate = date
	if len(eventsOnDay) > 0 {
		s.SelectedEventID = eventsOnDay[0].ID
		return s, Action{Kind: ActionOpenEdit, Date: date, EventID: eventsOnDay[0].ID}
	}
	s.SelectedEventID = ""
	return s, Action{Kind: ActionOpenAdd, Date: date}
}

// OnEventActivated handles a click on an event chip.
func OnEventActivated(s ViewState, id string) (ViewState, Action) {
	s.SelectedEventID = id
	return s, Action{Kind: ActionOpenEdit, EventID: id}
}

// OnAddRequested handles the toolbar "add event" button, which opens the
// add dialog without a prefilled date.
func OnAddRequested(s ViewState) (ViewState, Action) {
	s.SelectedEventID = ""
	return s, Action{Kind: ActionOpenAdd}
}

// OnDialogClosed clears the selection once a dialog is dismissed or its
// submit succeeded.
func OnDialogClosed(s ViewState) ViewState {
	s.SelectedEventID = ""
	return s
}
