package validate

import (
	"regexp"
	"testing"
	"time"
)

func TestEvaluateRequired(t *testing.T) {
	never := Rule{Check: func(string) bool { t.Fatal("rule ran on a blank value"); return false }, Message: "x"}

	for _, value := range []string{"", " ", "\t\n"} {
		msg, ok := Evaluate(Field{Name: "nom", Required: true, Rules: []Rule{never, MinLength(3)}}, value)
		if ok || msg != RequiredMessage {
			t.Errorf("Evaluate(%q) = %q, %v; want required message", value, msg, ok)
		}
	}
}

func TestEvaluateOptionalBlankSkipsRules(t *testing.T) {
	msg, ok := Evaluate(Field{Name: "tarif", Rules: []Rule{Numeric()}}, "  ")
	if !ok || msg != "" {
		t.Errorf("Evaluate = %q, %v; want valid", msg, ok)
	}
}

func TestEvaluateFirstFailureWins(t *testing.T) {
	var calls []string
	rule := func(name string, pass bool) Rule {
		return Rule{
			Check: func(string) bool {
				calls = append(calls, name)
				return pass
			},
			Message: name,
		}
	}

	f := Field{Name: "nom", Rules: []Rule{rule("a", true), rule("b", false), rule("c", false)}}
	msg, ok := Evaluate(f, "valeur")
	if ok || msg != "b" {
		t.Errorf("Evaluate = %q, %v; want b", msg, ok)
	}
	if len(calls) != 2 || calls[1] != "b" {
		t.Errorf("rules evaluated = %v; want [a b]", calls)
	}
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value string
		want  bool
	}{
		{"min length ok", MinLength(3), "Tlemcen", true},
		{"min length counts runes", MinLength(3), "été", true},
		{"min length short", MinLength(3), " ab ", false},
		{"max length ok", MaxLength(5), "Oran", true},
		{"max length long", MaxLength(5), "Constantine", false},
		{"pattern", Pattern(regexp.MustCompile(`^\d{2}$`), "code"), "16", true},
		{"pattern miss", Pattern(regexp.MustCompile(`^\d{2}$`), "code"), "alger", false},
		{"numeric", Numeric(), "12.5", true},
		{"numeric bad", Numeric(), "douze", false},
		{"numeric NaN", Numeric(), "NaN", false},
		{"numeric infinity", Numeric(), "+Inf", false},
		{"integer", Integer(), "40", true},
		{"integer decimal", Integer(), "4.5", false},
		{"min ok", Min(0), "0", true},
		{"min below", Min(0), "-1", false},
		{"min not a number", Min(0), "abc", false},
		{"max ok", Max(10), "10", true},
		{"max above", Max(10), "10.5", false},
		{"one of", OneOf("grid", "list"), "list", true},
		{"one of miss", OneOf("grid", "list"), "table", false},
		{"datetime", DateTime(), "2025-01-10T09:30", true},
		{"datetime bad", DateTime(), "10/01/2025", false},
		{"email", Email(), "contact@culture.dz", true},
		{"email with name", Email(), "Contact <contact@culture.dz>", false},
		{"url", URL(), "https://culture.gov.dz/sites", true},
		{"url relative", URL(), "/sites", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Check(tt.value); got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-10", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"2025-01-10T09:30", time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)},
		{"2025-01-10 09:30", time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)},
		{"2025-01-10T09:30:15", time.Date(2025, 1, 10, 9, 30, 15, 0, time.UTC)},
		{"2025-01-10T09:30:00+01:00", time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDateTime(tt.in)
		if err != nil {
			t.Errorf("ParseDateTime(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDateTime("demain"); err == nil {
		t.Error("ParseDateTime(demain) succeeded")
	}
}
