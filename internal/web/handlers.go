package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"deskcal/internal/datemath"
	"deskcal/internal/ics"
	appLog "deskcal/internal/log"
	"deskcal/internal/model"
	"deskcal/internal/view"
)

// eventsResponse is the JSON response shape for event lists.
type eventsResponse struct {
	Events []model.Event `json:"events"`
}

// activationResponse tells the client which dialog to open.
type activationResponse struct {
	State  view.ViewState `json:"state"`
	Action view.Action    `json:"action"`
	Event  *model.Event   `json:"event,omitempty"`
	Events []model.Event  `json:"events,omitempty"`
}

// deleteResponse is the JSON response shape for DELETE /api/events/{id}.
type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

// importRejection is a candidate the service refused.
type importRejection struct {
	UID    string            `json:"uid"`
	Title  string            `json:"title"`
	Date   string            `json:"date"`
	Errors map[string]string `json:"errors"`
}

// importResponse is the JSON response shape for POST /api/import.
type importResponse struct {
	Imported        []model.Event     `json:"imported"`
	Rejected        []importRejection `json:"rejected"`
	Skipped         []ics.Skipped     `json:"skipped"`
	TruncatedSeries []string          `json:"truncated_series,omitempty"`
	FromCache       bool              `json:"from_cache,omitempty"`
}

// handleMonth returns the laid out month view.
//
// GET /api/month?year=2024&month=3
//   - year, month: month to show (1-12), defaults to the current month
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	mv, err := s.buildMonth(r)
	if err != nil {
		var bad badRequest
		if errors.As(err, &bad) {
			writeError(w, http.StatusBadRequest, bad.Error())
			return
		}
		appLog.Error("api month: load failed", err)
		writeError(w, statusFor(err), "failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

// handleListEvents returns the events of one day or one month.
//
// GET /api/events?date=2024-03-10
// GET /api/events?year=2024&month=3
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		events []model.Event
		err    error
	)
	if date := q.Get("date"); date != "" {
		if !datemath.IsValidISO(date) {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		events, err = s.svc.ByDate(ctx, date)
	} else {
		state, perr := s.stateFromQuery(r)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		events, err = s.svc.ByMonth(ctx, state.Year, state.Month)
	}
	if err != nil {
		appLog.Error("api events: load failed", err)
		writeError(w, statusFor(err), "failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeFields(w, r)
	if !ok {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Create(r.Context(), in))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeFields(w, r)
	if !ok {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Update(r.Context(), r.PathValue("id"), in))
}

// handleGetEvent returns an event together with the edit action opened by
// activating its chip.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev, err := s.svc.Get(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			writeError(w, status, "event not found")
			return
		}
		appLog.Error("api event: load failed", err, "id", id)
		writeError(w, status, "failed to load event")
		return
	}

	day, err := ev.Day()
	if err != nil {
		day = datemath.DateOf(s.now().In(s.loc))
	}
	state, action := view.OnEventActivated(view.ViewState{Year: day.Year, Month: day.Month}, id)
	writeJSON(w, http.StatusOK, activationResponse{State: state, Action: action, Event: &ev})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), "failed to delete event")
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, deleteResponse{Deleted: false})
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: true})
}

// handleDay resolves activating a day cell.
//
// GET /api/days/2024-03-10
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	day, err := datemath.ParseISO(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	events, err := s.svc.ByDate(r.Context(), date)
	if err != nil {
		appLog.Error("api day: load failed", err, "date", date)
		writeError(w, statusFor(err), "failed to load events")
		return
	}

	state, action := view.OnDayActivated(view.ViewState{Year: day.Year, Month: day.Month}, date, events)
	writeJSON(w, http.StatusOK, activationResponse{State: state, Action: action, Events: events})
}

// handleExport returns the whole collection as an iCalendar file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.All(r.Context())
	if err != nil {
		appLog.Error("api export: load failed", err)
		writeError(w, statusFor(err), "failed to load events")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="deskcal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ics.Export(events, s.loc))
}

// handleImport creates events from an iCalendar payload.
//
// POST /api/import            body is the ICS document
// POST /api/import?url=...    the ICS document is fetched from url
//
// Every candidate goes through the event service, so invalid ones are
// reported as rejected. A storage failure aborts the import; events
// created before it are kept and reported.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	origin := "upload"
	var (
		body      []byte
		fromCache bool
	)
	if src := r.URL.Query().Get("url"); src != "" {
		res, err := s.fetcher.Fetch(ctx, src)
		if err != nil {
			appLog.Error("api import: fetch failed", err)
			writeError(w, http.StatusBadGateway, "failed to fetch calendar")
			return
		}
		body, origin, fromCache = res.Body, "url", res.FromCache
	} else {
		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "calendar too large")
			return
		}
		body = b
	}

	plan, err := ics.PlanImport(origin, body, ics.PlanConfig{
		Location:    s.loc,
		From:        s.now(),
		HorizonDays: s.cfg.Import.HorizonDays,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calendar")
		return
	}

	resp := importResponse{
		Imported:        make([]model.Event, 0, len(plan.Candidates)),
		Rejected:        make([]importRejection, 0),
		Skipped:         plan.Skipped,
		TruncatedSeries: plan.TruncatedSeries,
		FromCache:       fromCache,
	}
	for _, c := range plan.Candidates {
		res := s.svc.Create(ctx, c.Fields)
		if res.Success {
			resp.Imported = append(resp.Imported, *res.Event)
			continue
		}
		if res.Err != nil {
			appLog.Error("api import: aborted on storage failure", res.Err, "imported", len(resp.Imported))
			writeJSON(w, statusFor(res.Err), resp)
			return
		}
		resp.Rejected = append(resp.Rejected, importRejection{
			UID:    c.UID,
			Title:  c.Fields.Title,
			Date:   c.Fields.Date,
			Errors: res.Errors,
		})
	}

	appLog.Info("api import completed",
		"origin", origin,
		"imported", len(resp.Imported),
		"rejected", len(resp.Rejected),
		"skipped", len(resp.Skipped),
	)
	writeJSON(w, http.StatusOK, resp)
}

// decodeFields reads event fields from a JSON body. It writes a 400 and
// returns false on malformed input.
func decodeFields(w http.ResponseWriter, r *http.Request) (model.Fields, bool) {
	var in model.Fields
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return model.Fields{}, false
	}
	return in, true
}

// badRequest marks query errors that are the client's fault.
type badRequest string

func (b badRequest) Error() string { return string(b) }

// stateFromQuery reads ?year=&month= (1-12), defaulting to the current
// month in the configured zone.
func (s *Server) stateFromQuery(r *http.Request) (view.ViewState, error) {
	state := view.StateFor(s.now().In(s.loc))
	q := r.URL.Query()

	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return state, badRequest("year must be between 1 and 9999")
		}
		state.Year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return state, badRequest(fmt.Sprintf("month must be between 1 and 12, got %q", v))
		}
		state.Month = time.Month(m)
	}
	return state, nil
}

// buildMonth loads the requested month and lays it out.
func (s *Server) buildMonth(r *http.Request) (view.MonthView, error) {
	state, err := s.stateFromQuery(r)
	if err != nil {
		return view.MonthView{}, err
	}
	events, err := s.svc.ByMonth(r.Context(), state.Year, state.Month)
	if err != nil {
		return view.MonthView{}, err
	}
	today := datemath.DateOf(s.now().In(s.loc))
	return view.BuildMonth(state, events, today), nil
}
