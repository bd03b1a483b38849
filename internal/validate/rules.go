// Package validate evaluates per-field validation rules.
//
// A Field lists its rules in order. Evaluation stops at the first failing rule
// and reports its message. Rules only see the value of their own field;
// rules spanning several fields live in package form.
package validate

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// RequiredMessage is reported for a blank value in a required field.
const RequiredMessage = "Ce champ est obligatoire"

// Rule is a predicate over a single field value plus the message shown when it fails.
type Rule struct {
	Check   func(value string) bool
	Message string
}

// Field describes one form field.
type Field struct {
	Name     string
	Initial  string
	Required bool
	Rules    []Rule
}

// Evaluate validates value against the field. It returns the message of the
// first failing check and false, or "" and true when the value is valid.
//
// The required check runs before any rule. A blank value in an optional field
// is valid and its rules are not run.
func Evaluate(f Field, value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		if f.Required {
			return RequiredMessage, false
		}
		return "", true
	}

	for _, r := range f.Rules {
		if !r.Check(value) {
			return r.Message, false
		}
	}
	return "", true
}

// MinLength requires at least n characters once surrounding space is trimmed.
func MinLength(n int) Rule {
	return Rule{
		Check:   func(v string) bool { return utf8.RuneCountInString(strings.TrimSpace(v)) >= n },
		Message: fmt.Sprintf("Au moins %d caractères", n),
	}
}

// MaxLength allows at most n characters once surrounding space is trimmed.
func MaxLength(n int) Rule {
	return Rule{
		Check:   func(v string) bool { return utf8.RuneCountInString(strings.TrimSpace(v)) <= n },
		Message: fmt.Sprintf("Au plus %d caractères", n),
	}
}

// Pattern requires the value to match re.
func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{Check: re.MatchString, Message: message}
}

func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Numeric requires a decimal number.
func Numeric() Rule {
	return Rule{
		Check: func(v string) bool {
			_, ok := parseNumber(v)
			return ok
		},
		Message: "Doit être un nombre",
	}
}

// Integer requires a whole number.
func Integer() Rule {
	return Rule{
		Check: func(v string) bool {
			_, err := strconv.Atoi(strings.TrimSpace(v))
			return err == nil
		},
		Message: "Doit être un nombre entier",
	}
}

// Min requires a number greater than or equal to bound. Non-numbers fail.
func Min(bound float64) Rule {
	return Rule{
		Check: func(v string) bool {
			f, ok := parseNumber(v)
			return ok && f >= bound
		},
		Message: fmt.Sprintf("Doit être supérieur ou égal à %s", strconv.FormatFloat(bound, 'f', -1, 64)),
	}
}

// Max requires a number less than or equal to bound. Non-numbers fail.
func Max(bound float64) Rule {
	return Rule{
		Check: func(v string) bool {
			f, ok := parseNumber(v)
			return ok && f <= bound
		},
		Message: fmt.Sprintf("Doit être inférieur ou égal à %s", strconv.FormatFloat(bound, 'f', -1, 64)),
	}
}

// OneOf requires the trimmed value to be one of options.
func OneOf(options ...string) Rule {
	return Rule{
		Check:   func(v string) bool { return slices.Contains(options, strings.TrimSpace(v)) },
		Message: "Valeur non autorisée (" + strings.Join(options, ", ") + ")",
	}
}

// DateTime requires a value ParseDateTime accepts.
func DateTime() Rule {
	return Rule{
		Check: func(v string) bool {
			_, err := ParseDateTime(v)
			return err == nil
		},
		Message: "Date invalide",
	}
}

// Email requires a bare address such as nom@exemple.dz.
func Email() Rule {
	return Rule{
		Check: func(v string) bool {
			addr, err := mail.ParseAddress(strings.TrimSpace(v))
			return err == nil && addr.Name == "" && addr.Address == strings.TrimSpace(v)
		},
		Message: "Adresse email invalide",
	}
}

// URL requires an absolute http or https URL.
func URL() Rule {
	return Rule{
		Check: func(v string) bool {
			u, err := url.Parse(strings.TrimSpace(v))
			return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		Message: "URL invalide",
	}
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses the date and date-time forms produced by date pickers.
// Values without a zone are read as UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
