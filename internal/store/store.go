// Package store persists the event collection as one serialized blob.
//
// Every mutation is a load-modify-saveAll of the whole collection. Within
// a process the EventStore serializes mutations; across processes the
// backend must implement Swapper for writes not to be lost.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"deskcal/internal/datemath"
	appLog "deskcal/internal/log"
	"deskcal/internal/model"
)

// DefaultKey names the blob in key/value backends.
const DefaultKey = "calendar_events"

// DefaultQuotaBytes caps the serialized collection size.
const DefaultQuotaBytes = 5 << 20

var (
	ErrNotFound           = errors.New("store: event not found")
	ErrDuplicateID        = errors.New("store: duplicate event id")
	ErrQuotaExceeded      = errors.New("store: storage quota exceeded")
	ErrStorageUnavailable = errors.New("store: storage unavailable")
)

// EventStore is CRUD over the persisted event collection.
type EventStore struct {
	blob  Blob
	quota int

	mu sync.Mutex
}

// Option configures an EventStore.
type Option func(*EventStore)

// WithQuota sets the maximum serialized size in bytes. Zero or negative
// disables the check.
func WithQuota(bytes int) Option {
	return func(s *EventStore) {
		s.quota = bytes
	}
}

// New returns an EventStore over blob.
func New(blob Blob, opts ...Option) *EventStore {
	if blob == nil {
		panic("store.New: blob is nil")
	}
	s := &EventStore{blob: blob, quota: DefaultQuotaBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the full collection. An absent blob is an empty collection;
// a blob that does not decode as an array of events is logged and also
// treated as empty, to be overwritten by the next successful write.
func (s *EventStore) Load(ctx context.Context) ([]model.Event, error) {
	data, err := s.blob.Read(ctx)
	if err != nil {
		return nil, unavailable("read", err)
	}
	return decode(data), nil
}

// SaveAll replaces the persisted collection with events.
func (s *EventStore) SaveAll(ctx context.Context, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.encode(events)
	if err != nil {
		return err
	}
	if err := s.blob.Write(ctx, data); err != nil {
		return unavailable("write", err)
	}
	return nil
}

// Add appends ev. The ID must not already exist.
func (s *EventStore) Add(ctx context.Context, ev model.Event) error {
	return s.mutate(ctx, func(events []model.Event) ([]model.Event, error) {
		if indexOf(events, ev.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
		}
		return append(events, ev), nil
	})
}

// Update replaces the editable fields of the event with the given id and
// stamps UpdatedAt with at. ID and CreatedAt are preserved.
func (s *EventStore) Update(ctx context.Context, id string, patch model.Fields, at time.Time) (model.Event, error) {
	var updated model.Event
	err := s.mutate(ctx, func(events []model.Event) ([]model.Event, error) {
		i := indexOf(events, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		ev := events[i]
		ev.Fields = patch
		ev.UpdatedAt = at.UnixMilli()
		if ev.UpdatedAt < ev.CreatedAt {
			ev.UpdatedAt = ev.CreatedAt
		}
		events[i] = ev
		updated = ev
		return events, nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return updated, nil
}

// Remove deletes the event with the given id.
func (s *EventStore) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, func(events []model.Event) ([]model.Event, error) {
		i := indexOf(events, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return append(events[:i], events[i+1:]...), nil
	})
}

// ByID returns the event with the given id.
func (s *EventStore) ByID(ctx context.Context, id string) (model.Event, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return model.Event{}, err
	}
	if i := indexOf(events, id); i >= 0 {
		return events[i], nil
	}
	return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ByDate returns the events on an ISO date, in stored order.
func (s *EventStore) ByDate(ctx context.Context, date string) ([]model.Event, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.Date == date {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ByMonth returns the events whose date falls in the given month. Events
// with an unparsable date are skipped.
func (s *EventStore) ByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0)
	for _, ev := range events {
		d, err := datemath.ParseISO(ev.Date)
		if err != nil {
			continue
		}
		if d.Year == year && d.Month == month {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Raw returns the persisted payload as is, or nil if none exists.
func (s *EventStore) Raw(ctx context.Context) ([]byte, error) {
	data, err := s.blob.Read(ctx)
	if err != nil {
		return nil, unavailable("read", err)
	}
	return data, nil
}

// Clear removes the persisted payload.
func (s *EventStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.blob.Remove(ctx); err != nil {
		return unavailable("remove", err)
	}
	return nil
}

// Available reports whether the backend can currently be written.
func (s *EventStore) Available(ctx context.Context) bool {
	if err := s.blob.Ping(ctx); err != nil {
		appLog.Error("event storage not available", err)
		return false
	}
	return true
}

// mutate runs a load-modify-saveAll cycle for fn.
func (s *EventStore) mutate(ctx context.Context, fn func([]model.Event) ([]model.Event, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var opErr error
	apply := func(old []byte) ([]byte, error) {
		next, err := fn(decode(old))
		if err != nil {
			opErr = err
			return nil, err
		}
		data, err := s.encode(next)
		if err != nil {
			opErr = err
			return nil, err
		}
		return data, nil
	}

	if sw, ok := s.blob.(Swapper); ok {
		err := sw.Swap(ctx, apply)
		if opErr != nil {
			return opErr
		}
		if err != nil {
			return unavailable("swap", err)
		}
		return nil
	}

	old, err := s.blob.Read(ctx)
	if err != nil {
		return unavailable("read", err)
	}
	data, err := apply(old)
	if err != nil {
		return err
	}
	if err := s.blob.Write(ctx, data); err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (s *EventStore) encode(events []model.Event) ([]byte, error) {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	if s.quota > 0 && len(data) > s.quota {
		appLog.Error("event blob over quota", ErrQuotaExceeded, "bytes", len(data), "quota", s.quota)
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrQuotaExceeded, len(data), s.quota)
	}
	return data, nil
}

func decode(data []byte) []model.Event {
	if len(data) == 0 {
		return []model.Event{}
	}
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		appLog.Warn("event blob is corrupt; treating as empty", "err", err, "bytes", len(data))
		return []model.Event{}
	}
	if events == nil {
		return []model.Event{}
	}
	return events
}

func indexOf(events []model.Event, id string) int {
	for i, ev := range events {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

func unavailable(op string, err error) error {
	appLog.Error("event storage "+op+" failed", err)
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
