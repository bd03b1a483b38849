package form

import (
	"testing"

	"github.com/actionculture/heritage/internal/validate"
)

func TestDateOrderRule(t *testing.T) {
	rule := DateOrder("debut", "fin", "")

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"end before start", "2025-01-10", "2025-01-05", false},
		{"end equals start", "2025-01-10", "2025-01-10", false},
		{"end after start", "2025-01-10", "2025-01-20", true},
		{"mixed layouts", "2025-01-10", "2025-01-10T00:01", true},
		{"start blank", "", "2025-01-05", true},
		{"end blank", "2025-01-10", " ", true},
		{"end unparseable", "2025-01-10", "bientôt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, msg, ok := rule.Apply(Values{"debut": tt.start, "fin": tt.end})
			if ok != tt.want {
				t.Errorf("ok = %v, want %v", ok, tt.want)
			}
			if target != "fin" || msg != DateOrderMessage {
				t.Errorf("target, msg = %q, %q", target, msg)
			}
		})
	}
}

func TestCrossRuleSetsAndClearsEndError(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)

	_ = c.SetValue(EventStart, "2025-01-10")
	_ = c.SetValue(EventEnd, "2025-01-05")
	if got := c.Error(EventEnd); got != DateOrderMessage {
		t.Fatalf("end error = %q, want date order message", got)
	}

	_ = c.SetValue(EventEnd, "2025-01-20")
	if got := c.Error(EventEnd); got != "" {
		t.Errorf("end error = %q, want cleared", got)
	}
}

func TestCrossRuleRunsWhenStartChanges(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)

	_ = c.SetValue(EventEnd, "2025-01-05")
	_ = c.SetValue(EventStart, "2025-01-10")
	if got := c.Error(EventEnd); got != DateOrderMessage {
		t.Fatalf("end error = %q after moving start past end", got)
	}

	_ = c.SetValue(EventStart, "2025-01-01")
	if got := c.Error(EventEnd); got != "" {
		t.Errorf("end error = %q after moving start back", got)
	}
}

func TestCrossRuleKeepsOtherEndErrors(t *testing.T) {
	c := NewEventForm((&recorder{}).submit)

	_ = c.SetValue(EventStart, "2025-01-10")
	_ = c.SetValue(EventEnd, "pas une date")
	if got := c.Error(EventEnd); got != validate.DateTime().Message {
		t.Fatalf("end error = %q, want per-field date error", got)
	}

	// Changing the start re-runs the pair check, which must not erase the per-field error.
	_ = c.SetValue(EventStart, "2025-01-11")
	if got := c.Error(EventEnd); got != validate.DateTime().Message {
		t.Errorf("end error = %q, want per-field date error kept", got)
	}

	_ = c.SetError(EventEnd, "créneau déjà réservé")
	_ = c.SetValue(EventStart, "2025-01-12")
	if got := c.Error(EventEnd); got != "créneau déjà réservé" {
		t.Errorf("end error = %q, want server error kept", got)
	}
}
