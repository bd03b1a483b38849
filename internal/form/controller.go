// Package form holds the state of a data-entry form: current values, field
// errors and a busy flag while the submit action runs.
//
// Every SetValue is a two-phase update. The value is committed and its own
// rules evaluated first, then every cross-field rule watching that field runs
// against the committed values.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/actionculture/heritage/internal/validate"
)

var (
	// ErrUnknownField is returned when a field name is not part of the form.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrBusy is returned by Submit while a previous submit is pending.
	ErrBusy = errors.New("form: submit already in progress")
	// ErrInvalid matches every *InvalidError.
	ErrInvalid = errors.New("form: invalid values")
)

// Values maps field names to their current text.
type Values map[string]string

// Errors maps field names to their current error message. A valid field has no entry.
type Errors map[string]string

// InvalidError is returned by Submit when at least one field is invalid.
type InvalidError struct {
	Errors Errors
}

func (e *InvalidError) Error() string {
	fields := slices.Sorted(maps.Keys(e.Errors))
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Errors[f])
	}
	return ErrInvalid.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Config configures a Controller. P is the request shape handed to Submit.
type Config[P any] struct {
	Fields []validate.Field
	Cross  []CrossRule

	// Map converts the form values into the request, e.g. parsing numbers and
	// omitting blank optional fields.
	Map func(Values) (P, error)

	// Submit performs the request. It is called at most once per Controller.Submit.
	Submit func(ctx context.Context, payload P) error

	Logger *slog.Logger
}

// Controller owns the values and errors of one form. It is safe for concurrent use.
type Controller[P any] struct {
	mu     sync.Mutex
	order  []string
	fields map[string]validate.Field
	cross  []CrossRule
	mapFn  func(Values) (P, error)
	submit func(context.Context, P) error
	logger *slog.Logger

	values Values
	errors Errors
	busy   bool
}

// New creates a controller holding the initial value of every field.
// It panics on a duplicate field name or a missing Map or Submit function.
func New[P any](cfg Config[P]) *Controller[P] {
	if cfg.Map == nil || cfg.Submit == nil {
		panic("form: Map and Submit are required")
	}

	c := &Controller[P]{
		fields: make(map[string]validate.Field, len(cfg.Fields)),
		cross:  slices.Clone(cfg.Cross),
		mapFn:  cfg.Map,
		submit: cfg.Submit,
		logger: cfg.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	for _, f := range cfg.Fields {
		if _, dup := c.fields[f.Name]; dup {
			panic(fmt.Sprintf("form: duplicate field %q", f.Name))
		}
		c.fields[f.Name] = f
		c.order = append(c.order, f.Name)
	}
	for _, r := range c.cross {
		for _, name := range r.Watches() {
			if _, ok := c.fields[name]; !ok {
				panic(fmt.Sprintf("form: cross rule watches unknown field %q", name))
			}
		}
	}

	c.resetLocked()
	return c
}

// Fields returns the field descriptors in declaration order.
func (c *Controller[P]) Fields() []validate.Field {
	out := make([]validate.Field, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.fields[name])
	}
	return out
}

// Values returns a copy of the current values.
func (c *Controller[P]) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.values)
}

// Errors returns a copy of the current field errors.
func (c *Controller[P]) Errors() Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.errors)
}

// Error returns the current error of one field, or "".
func (c *Controller[P]) Error(field string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors[field]
}

// Busy reports whether a submit is pending.
func (c *Controller[P]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// SetValue commits value, re-evaluates the field's own rules and then every
// cross rule watching the field.
func (c *Controller[P]) SetValue(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.fields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	c.values[field] = value
	c.evaluateLocked(f)

	for _, r := range c.cross {
		if slices.Contains(r.Watches(), field) {
			c.applyLocked(r)
		}
	}
	return nil
}

// SetError sets a field error directly, e.g. one reported by the server.
func (c *Controller[P]) SetError(field, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.fields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.errors[field] = message
	return nil
}

// ClearError removes a field error.
func (c *Controller[P]) ClearError(field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.fields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(c.errors, field)
	return nil
}

// Submit validates every field, then every cross rule. When all pass it maps
// the values and calls the submit action once. The action's error is returned
// wrapped; values are kept so the caller can retry.
//
// Submit returns ErrBusy while another submit is pending and an *InvalidError
// when validation fails, without calling the action in either case.
func (c *Controller[P]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}

	for _, name := range c.order {
		c.evaluateLocked(c.fields[name])
	}
	for _, r := range c.cross {
		c.applyLocked(r)
	}
	if len(c.errors) > 0 {
		err := &InvalidError{Errors: maps.Clone(c.errors)}
		c.mu.Unlock()
		return err
	}

	payload, err := c.mapFn(maps.Clone(c.values))
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("form: mapping values: %w", err)
	}

	c.busy = true
	c.mu.Unlock()

	err = c.submit(ctx, payload)

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("form submit failed", slog.String("error", err.Error()))
		return fmt.Errorf("form: submit: %w", err)
	}
	return nil
}

// Reset restores the initial values and clears every error.
func (c *Controller[P]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller[P]) resetLocked() {
	c.values = make(Values, len(c.order))
	for _, name := range c.order {
		c.values[name] = c.fields[name].Initial
	}
	c.errors = make(Errors)
}

func (c *Controller[P]) evaluateLocked(f validate.Field) {
	if msg, ok := validate.Evaluate(f, c.values[f.Name]); ok {
		delete(c.errors, f.Name)
	} else {
		c.errors[f.Name] = msg
	}
}

// applyLocked runs a cross rule. A passing rule only clears the target error
// when that error is the rule's own message.
func (c *Controller[P]) applyLocked(r CrossRule) {
	target, msg, ok := r.Apply(c.values)
	if !ok {
		c.errors[target] = msg
		return
	}
	if c.errors[target] == msg {
		delete(c.errors, target)
	}
}
