package form

import (
	"strings"

	"github.com/actionculture/heritage/internal/validate"
)

// CrossRule validates a relation between several fields.
type CrossRule interface {
	// Watches lists the fields whose changes re-run the rule.
	Watches() []string

	// Apply checks the committed values. It always reports the field the rule
	// writes to and the message it writes there; ok is false when the check fails.
	Apply(values Values) (target, message string, ok bool)
}

// DateOrderMessage is the default DateOrder failure message.
const DateOrderMessage = "La date de fin doit être postérieure à la date de début"

type dateOrder struct {
	start, end string
	message    string
}

// DateOrder requires the end field to be strictly after the start field.
// While either field is blank or not a valid date the pair is not comparable
// and the rule passes.
func DateOrder(start, end, message string) CrossRule {
	if message == "" {
		message = DateOrderMessage
	}
	return dateOrder{start: start, end: end, message: message}
}

func (r dateOrder) Watches() []string {
	return []string{r.start, r.end}
}

func (r dateOrder) Apply(values Values) (string, string, bool) {
	rawStart, rawEnd := strings.TrimSpace(values[r.start]), strings.TrimSpace(values[r.end])
	if rawStart == "" || rawEnd == "" {
		return r.end, r.message, true
	}

	start, err := validate.ParseDateTime(rawStart)
	if err != nil {
		return r.end, r.message, true
	}
	end, err := validate.ParseDateTime(rawEnd)
	if err != nil {
		return r.end, r.message, true
	}

	return r.end, r.message, end.After(start)
}
