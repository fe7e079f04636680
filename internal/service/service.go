// Package service combines validation and storage into the create, update
// and delete operations used by the presentation layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "deskcal/internal/log"
	"deskcal/internal/model"
	"deskcal/internal/store"
	"deskcal/internal/validate"
)

// DefaultColor is applied when an event is written without a color.
const DefaultColor = "#4CAF50"

// FieldGeneral carries errors that do not belong to a single input field.
const FieldGeneral = "general"

// Repository is the slice of store.EventStore the service depends on.
type Repository interface {
	Add(ctx context.Context, ev model.Event) error
	Update(ctx context.Context, id string, patch model.Fields, at time.Time) (model.Event, error)
	Remove(ctx context.Context, id string) error
	ByID(ctx context.Context, id string) (model.Event, error)
	ByDate(ctx context.Context, date string) ([]model.Event, error)
	ByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error)
	Load(ctx context.Context) ([]model.Event, error)
}

// Result is the outcome of Create and Update.
//
// On validation failure Errors maps field names to reasons. Errors under
// FieldGeneral come with Err set to the underlying store error so callers
// can tell a stale reference from a storage outage.
type Result struct {
	Success bool              `json:"success"`
	Event   *model.Event      `json:"event,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Err     error             `json:"-"`
}

// Service orchestrates validation and persistence of events.
type Service struct {
	repo         Repository
	now          func() time.Time
	newID        func(time.Time) string
	defaultColor string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides NewID.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithDefaultColor sets the color used when input leaves it empty.
func WithDefaultColor(c string) Option {
	return func(s *Service) {
		if validate.IsHexColor(c) {
			s.defaultColor = c
		}
	}
}

// New returns a Service persisting through repo.
func New(repo Repository, opts ...Option) *Service {
	if repo == nil {
		panic("service.New: repository is nil")
	}
	s := &Service{
		repo:         repo,
		now:          time.Now,
		newID:        NewID,
		defaultColor: DefaultColor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns "evt_<unix millis>_<9 hex chars>". The random part comes
// from a v4 UUID, so collisions within the same millisecond are unlikely
// but not impossible.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("evt_%d_%s", now.UnixMilli(), suffix)
}

// Create validates in and persists it as a new event.
func (s *Service) Create(ctx context.Context, in model.Fields) Result {
	check := validate.Event(in)
	if !check.Valid {
		return Result{Errors: check.Errors}
	}

	now := s.now()
	ev := model.Event{
		ID:        s.newID(now),
		Fields:    s.normalize(in),
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}

	if err := s.repo.Add(ctx, ev); err != nil {
		appLog.Error("create event failed", err, "id", ev.ID)
		return failure("Failed to save event", err)
	}

	appLog.Info("event created", "id", ev.ID, "date", ev.Date)
	return Result{Success: true, Event: &ev}
}

// Update validates in and replaces every editable field of the event with
// the given id. ID and CreatedAt never change.
func (s *Service) Update(ctx context.Context, id string, in model.Fields) Result {
	check := validate.Event(in)
	if !check.Valid {
		return Result{Errors: check.Errors}
	}

	ev, err := s.repo.Update(ctx, id, s.normalize(in), s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			appLog.Info("update of unknown event", "id", id)
			return failure("Event not found", err)
		}
		appLog.Error("update event failed", err, "id", id)
		return failure("Failed to update event", err)
	}

	appLog.Info("event updated", "id", ev.ID, "date", ev.Date)
	return Result{Success: true, Event: &ev}
}

// Delete removes the event with the given id and reports whether it
// existed. Deleting an unknown id is not an error; only storage failures
// are returned.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	err := s.repo.Remove(ctx, id)
	switch {
	case err == nil:
		appLog.Info("event deleted", "id", id)
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		appLog.Error("delete event failed", err, "id", id)
		return false, err
	}
}

// Get returns the event with the given id, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (model.Event, error) {
	return s.repo.ByID(ctx, id)
}

// ByDate returns the events on an ISO date.
func (s *Service) ByDate(ctx context.Context, date string) ([]model.Event, error) {
	return s.repo.ByDate(ctx, date)
}

// ByMonth returns the events in the given month.
func (s *Service) ByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	return s.repo.ByMonth(ctx, year, month)
}

// All returns the whole collection.
func (s *Service) All(ctx context.Context) ([]model.Event, error) {
	return s.repo.Load(ctx)
}

// normalize trims free text and fills the default color.
func (s *Service) normalize(in model.Fields) model.Fields {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Description = strings.TrimSpace(in.Description)
	if out.Color == "" {
		out.Color = s.defaultColor
	}
	return out
}

func failure(msg string, err error) Result {
	return Result{
		Errors: map[string]string{FieldGeneral: msg},
		Err:    err,
	}
}
