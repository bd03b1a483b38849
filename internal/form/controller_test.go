package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/validate"
)

type recorder struct {
	mu    sync.Mutex
	calls []domain.EventInput
	err   error
}

func (r *recorder) submit(_ context.Context, in domain.EventInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, in)
	return r.err
}

func fill(t *testing.T, c *Controller[domain.EventInput], values map[string]string) {
	t.Helper()
	for _, name := range []string{EventName, EventDescription, EventStart, EventEnd, EventPrice, EventCapacity} {
		if v, ok := values[name]; ok {
			if err := c.SetValue(name, v); err != nil {
				t.Fatalf("SetValue(%s): %v", name, err)
			}
		}
	}
}

func TestNewStartsFromInitialValues(t *testing.T) {
	c := New(Config[string]{
		Fields: []validate.Field{{Name: "ville", Initial: "Alger"}, {Name: "code"}},
		Map:    func(Values) (string, error) { return "", nil },
		Submit: func(context.Context, string) error { return nil },
	})

	if diff := cmp.Diff(Values{"ville": "Alger", "code": ""}, c.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if len(c.Errors()) != 0 {
		t.Errorf("errors = %v, want none", c.Errors())
	}
}

func TestNewPanicsOnDuplicateField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New did not panic")
		}
	}()
	New(Config[string]{
		Fields: []validate.Field{{Name: "nom"}, {Name: "nom"}},
		Map:    func(Values) (string, error) { return "", nil },
		Submit: func(context.Context, string) error { return nil },
	})
}

func TestSetValueValidatesField(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)

	if err := c.SetValue(EventName, "ab"); err != nil {
		t.Fatal(err)
	}
	if got := c.Error(EventName); got != validate.MinLength(3).Message {
		t.Errorf("error = %q", got)
	}

	if err := c.SetValue(EventName, "Festival du Malouf"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Errors()[EventName]; ok {
		t.Errorf("error not cleared: %v", c.Errors())
	}

	if err := c.SetValue(EventName, ""); err != nil {
		t.Fatal(err)
	}
	if got := c.Error(EventName); got != validate.RequiredMessage {
		t.Errorf("error = %q, want required message", got)
	}

	if err := c.SetValue("inconnu", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("SetValue(unknown) = %v, want ErrUnknownField", err)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)
	_ = c.SetValue(EventName, "x")

	values := c.Values()
	values[EventName] = "modifié"
	errs := c.Errors()
	delete(errs, EventName)

	if c.Values()[EventName] != "x" || c.Error(EventName) == "" {
		t.Error("snapshot mutation leaked into controller state")
	}
}

func TestSetAndClearError(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)

	if err := c.SetError(EventName, "déjà utilisé"); err != nil {
		t.Fatal(err)
	}
	if c.Error(EventName) != "déjà utilisé" {
		t.Errorf("error = %q", c.Error(EventName))
	}
	if err := c.ClearError(EventName); err != nil {
		t.Fatal(err)
	}
	if c.Error(EventName) != "" {
		t.Errorf("error = %q after clear", c.Error(EventName))
	}
	if err := c.SetError("inconnu", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("SetError(unknown) = %v", err)
	}
	if err := c.ClearError("inconnu"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ClearError(unknown) = %v", err)
	}
}

func TestSubmitInvalidDoesNotCallAction(t *testing.T) {
	rec := &recorder{}
	c := NewEventForm(rec.submit)
	fill(t, c, map[string]string{EventPrice: "-5"})

	err := c.Submit(context.Background())
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Submit = %v, want ErrInvalid", err)
	}
	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("Submit = %T, want *InvalidError", err)
	}

	want := Errors{
		EventName:  validate.RequiredMessage,
		EventStart: validate.RequiredMessage,
		EventEnd:   validate.RequiredMessage,
		EventPrice: validate.Min(0).Message,
	}
	if diff := cmp.Diff(want, invalid.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, c.Errors()); diff != "" {
		t.Errorf("state errors mismatch (-want +got):\n%s", diff)
	}
	if len(rec.calls) != 0 {
		t.Errorf("action called %d times", len(rec.calls))
	}
}

func TestSubmitMapsAndCallsActionOnce(t *testing.T) {
	rec := &recorder{}
	c := NewEventForm(rec.submit)
	fill(t, c, map[string]string{
		EventName:     "  Nuit des musées ",
		EventStart:    "2025-05-18T18:00",
		EventEnd:      "2025-05-18T23:00",
		EventPrice:    "",
		EventCapacity: "300",
	})

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("action called %d times, want 1", len(rec.calls))
	}

	got := rec.calls[0]
	if got.Name != "Nuit des musées" || got.Price != nil || got.Capacity == nil || *got.Capacity != 300 {
		t.Errorf("payload = %+v", got)
	}
	if got.EndsAt.Sub(got.StartsAt).Hours() != 5 {
		t.Errorf("dates = %v .. %v", got.StartsAt, got.EndsAt)
	}
	if c.Busy() {
		t.Error("still busy after submit")
	}
}

func TestSubmitFailureKeepsValues(t *testing.T) {
	remote := errors.New("service indisponible")
	rec := &recorder{err: remote}
	c := NewEventForm(rec.submit)
	fill(t, c, map[string]string{
		EventName:  "Concert",
		EventStart: "2025-06-01",
		EventEnd:   "2025-06-02",
	})
	before := c.Values()

	err := c.Submit(context.Background())
	if !errors.Is(err, remote) {
		t.Fatalf("Submit = %v, want wrapped remote error", err)
	}
	if diff := cmp.Diff(before, c.Values()); diff != "" {
		t.Errorf("values changed after failure (-want +got):\n%s", diff)
	}
	if c.Busy() {
		t.Error("still busy after failed submit")
	}
}

func TestSubmitRejectedWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	c := NewEventForm(func(context.Context, domain.EventInput) error {
		calls++
		close(started)
		<-release
		return nil
	})
	fill(t, c, map[string]string{EventName: "Expo", EventStart: "2025-01-01", EventEnd: "2025-01-02"})

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-started

	if !c.Busy() {
		t.Error("Busy = false while action pending")
	}
	if err := c.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Submit = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if calls != 1 {
		t.Errorf("action called %d times, want 1", calls)
	}
}

func TestSubmitMappingError(t *testing.T) {
	called := false
	c := New(Config[int]{
		Fields: []validate.Field{{Name: "n"}},
		Map:    func(Values) (int, error) { return 0, errors.New("boom") },
		Submit: func(context.Context, int) error { called = true; return nil },
	})

	if err := c.Submit(context.Background()); err == nil || called {
		t.Errorf("Submit = %v, called = %v", err, called)
	}
	if c.Busy() {
		t.Error("busy after mapping error")
	}
}

func TestReset(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)
	fill(t, c, map[string]string{EventName: "x", EventPrice: "abc"})

	c.Reset()

	if diff := cmp.Diff(Values{
		EventName: "", EventDescription: "", EventStart: "", EventEnd: "", EventPrice: "", EventCapacity: "",
	}, c.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if len(c.Errors()) != 0 {
		t.Errorf("errors = %v", c.Errors())
	}
}
