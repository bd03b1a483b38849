package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/actionculture/heritage/internal/cli/output"
	"github.com/actionculture/heritage/internal/client"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/form"
	"github.com/actionculture/heritage/internal/validate"
)

func newEventsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event"},
		Short:   "list and schedule cultural events",
	}
	cmd.AddCommand(newEventsListCommand(a), newEventsCreateCommand(a))
	return cmd
}

func newEventsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <site-id>",
		Short: "list a site's events by start date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID("site-id", args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			events, err := c.ListEvents(ctx, id)
			if err != nil {
				return err
			}
			return a.printer.Events(events)
		},
	}
}

// eventFlagNames maps form fields to their command-line flags.
var eventFlagNames = map[string]string{
	form.EventName:        "name",
	form.EventDescription: "description",
	form.EventStart:       "start",
	form.EventEnd:         "end",
	form.EventPrice:       "price",
	form.EventCapacity:    "capacity",
}

// eventPrompts are the interactive questions, in form field order.
var eventPrompts = map[string]string{
	form.EventName:        "Nom de l'événement:",
	form.EventDescription: "Description:",
	form.EventStart:       "Date de début (AAAA-MM-JJ HH:MM):",
	form.EventEnd:         "Date de fin (AAAA-MM-JJ HH:MM):",
	form.EventPrice:       "Tarif en dinars (vide si gratuit):",
	form.EventCapacity:    "Capacité (vide si illimitée):",
}

func newEventsCreateCommand(a *app) *cobra.Command {
	var (
		values      = make(map[string]*string, len(eventFlagNames))
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "create <site-id>",
		Short: "schedule an event at a site",
		Long: `Schedule an event at a site.

Values come from flags. With -i every field not given as a flag is asked for
interactively and an invalid answer is asked again with the reason.`,
		Example: `  $ heritagectl events create 6f1c... --name "Nuit des musées" \
      --start "2025-05-18 19:00" --end "2025-05-18 23:30" --price 0

  $ heritagectl events create 6f1c... -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			siteID, err := domain.ParseID("site-id", args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			var created *domain.Event
			ctl := form.NewEventForm(func(ctx context.Context, in domain.EventInput) error {
				e, err := c.CreateEvent(ctx, siteID, in)
				if err != nil {
					return err
				}
				created = e
				return nil
			})

			for _, f := range ctl.Fields() {
				if cmd.Flags().Changed(eventFlagNames[f.Name]) {
					if err := ctl.SetValue(f.Name, *values[f.Name]); err != nil {
						return err
					}
				} else if interactive {
					if err := askField(ctl, f); err != nil {
						return err
					}
				}
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := ctl.Submit(ctx); err != nil {
				return a.reportEventErrors(ctl, err)
			}

			output.Success(a.out, "Event %q scheduled", created.Name)
			return a.printer.Event(created)
		},
	}

	for _, f := range form.EventFields() {
		flag := eventFlagNames[f.Name]
		values[f.Name] = cmd.Flags().String(flag, f.Initial, eventPrompts[f.Name])
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for every field not given as a flag")

	return cmd
}

// askField prompts for one field until the form accepts the answer.
func askField(ctl *form.Controller[domain.EventInput], f validate.Field) error {
	var answer string
	prompt := &survey.Input{
		Message: eventPrompts[f.Name],
		Default: ctl.Values()[f.Name],
	}
	validator := func(ans any) error {
		s, _ := ans.(string)
		if err := ctl.SetValue(f.Name, s); err != nil {
			return err
		}
		if msg := ctl.Error(f.Name); msg != "" {
			return errors.New(msg)
		}
		return nil
	}
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(validator)); err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return nil
}

// reportEventErrors prints field errors from local validation or from the
// server's response, then returns a summary error.
func (a *app) reportEventErrors(ctl *form.Controller[domain.EventInput], err error) error {
	order := make([]string, 0, len(eventFlagNames))
	for _, f := range ctl.Fields() {
		order = append(order, f.Name)
	}

	var invalid *form.InvalidError
	if errors.As(err, &invalid) {
		output.Error(a.errOut, "the event is not valid:")
		output.FieldErrors(a.errOut, order, invalid.Errors)
		return form.ErrInvalid
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
		for field, msg := range apiErr.Details {
			_ = ctl.SetError(field, msg)
		}
		output.Error(a.errOut, "the server rejected the event:")
		output.FieldErrors(a.errOut, order, ctl.Errors())
	}
	return err
}
