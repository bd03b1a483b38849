// Package output renders heritagectl results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/filter"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Status line colours. Colour is dropped when stdout is not a terminal or
// NO_COLOR is set.
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	fieldColor   = color.New(color.FgYellow)
)

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// New returns a printer writing to w.
func New(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// encode writes v as JSON or YAML. It reports false for table output so the
// caller renders its own layout.
func (p *Printer) encode(v any) (bool, error) {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		data, err := toYAML(v)
		if err != nil {
			return true, err
		}
		_, err = p.w.Write(data)
		return true, err
	}
	return false, nil
}

// toYAML goes through JSON so the keys match the API, then drops the JSON
// flow styles so the document reads as block YAML.
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Sites prints a listing. pagination may be nil for non-paginated results.
// The grid view prints one card per site; the list view prints a table.
func (p *Printer) Sites(sites []domain.Site, pagination *domain.Pagination, view filter.View) error {
	items := api.FromSites(sites)
	var v any = api.List[api.Site]{Items: items}
	if pagination != nil {
		v = api.Page[api.Site]{Items: items, Pagination: *pagination}
	}
	if done, err := p.encode(v); done {
		return err
	}

	if len(sites) == 0 {
		fmt.Fprintln(p.w, "No sites found.")
	} else if view == filter.ViewList {
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNOM\tCATEGORIE\tWILAYA\tVISITES")
		for _, s := range sites {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Name, s.Category, s.Wilaya, s.Visits)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else {
		for i, s := range sites {
			if i > 0 {
				fmt.Fprintln(p.w)
			}
			fmt.Fprintf(p.w, "%s\n  %s · %s\n  %s\n", s.Name, s.Category, location(s), s.ID)
		}
	}

	if pagination != nil {
		fmt.Fprintf(p.w, "\nPage %d/%d (%d sites)\n", pagination.Page, max(pagination.TotalPages, 1), pagination.Total)
	}
	return nil
}

func location(s domain.Site) string {
	if s.Commune != "" {
		return s.Commune + ", " + s.Wilaya
	}
	return s.Wilaya
}

// Site prints one site with its details, events and media.
func (p *Printer) Site(s *domain.Site) error {
	if done, err := p.encode(api.FromSite(s)); done {
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}
	row("ID", s.ID.String())
	row("Nom", s.Name)
	row("Catégorie", string(s.Category))
	row("Wilaya", s.Wilaya)
	row("Commune", s.Commune)
	row("Coordonnées", fmt.Sprintf("%.5f, %.5f", s.Latitude, s.Longitude))
	row("Visites", strconv.FormatInt(s.Visits, 10))
	row("Période", s.Details.Period)
	row("Description", s.Description)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Events) > 0 {
		fmt.Fprintln(p.w, "\nÉvénements:")
		if err := p.eventTable(s.Events); err != nil {
			return err
		}
	}
	if len(s.Media) > 0 {
		fmt.Fprintln(p.w, "\nMédias:")
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		for _, m := range s.Media {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Kind, m.Title, m.URL)
		}
		return tw.Flush()
	}
	return nil
}

// Events prints a site's events.
func (p *Printer) Events(events []domain.Event) error {
	items := make([]api.Event, 0, len(events))
	for i := range events {
		items = append(items, api.FromEvent(&events[i]))
	}
	if done, err := p.encode(api.List[api.Event]{Items: items}); done {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(p.w, "No events scheduled.")
		return nil
	}
	return p.eventTable(events)
}

func (p *Printer) eventTable(events []domain.Event) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOM\tDEBUT\tFIN\tTARIF")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Name, e.StartsAt.Format(time.DateTime), e.EndsAt.Format(time.DateTime), price(e.Price))
	}
	return tw.Flush()
}

func price(p *float64) string {
	if p == nil || *p == 0 {
		return "gratuit"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64) + " DA"
}

// Event prints one created event.
func (p *Printer) Event(e *domain.Event) error {
	if done, err := p.encode(api.FromEvent(e)); done {
		return err
	}
	return p.eventTable([]domain.Event{*e})
}

// Media prints one uploaded file.
func (p *Printer) Media(m *domain.Media) error {
	if done, err := p.encode(api.FromMedia(m)); done {
		return err
	}
	fmt.Fprintf(p.w, "%s\t%s\t%s (%d bytes)\n", m.ID, m.Kind, m.URL, m.Size)
	return nil
}

// Filters prints a filter snapshot. Table output falls back to YAML.
func (p *Printer) Filters(s filter.State) error {
	if p.format == FormatJSON {
		_, err := p.encode(s)
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = p.w.Write(data)
	return err
}

// Success prints a confirmation line.
func Success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints a failure line.
func Error(w io.Writer, format string, args ...any) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// FieldErrors prints one line per field, in the given order.
func FieldErrors(w io.Writer, order []string, errs map[string]string) {
	for _, field := range order {
		if msg := errs[field]; msg != "" {
			fieldColor.Fprintf(w, "  %s: %s\n", field, msg)
		}
	}
}
