package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/cli/output"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/filter"
	"github.com/actionculture/heritage/internal/sitehook"
)

func newSitesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sites",
		Aliases: []string{"site"},
		Short:   "browse and manage heritage sites",
	}

	cmd.AddCommand(
		newSitesListCommand(a),
		newSitesSearchCommand(a),
		newSitesFiltersCommand(a),
		newSitesNearbyCommand(a),
		newSitesPopularCommand(a),
		newSitesCategoryCommand(a),
		newSitesGetCommand(a),
		newSitesCreateCommand(a),
		newSitesUpdateCommand(a),
		newSitesDeleteCommand(a),
		newSitesMediaCommand(a),
	)
	return cmd
}

// hookError turns a failed hook call into the error it recorded.
func hookError(h *sitehook.Hook) error {
	return errors.New(h.State().Err)
}

func newSitesListCommand(a *app) *cobra.Command {
	var (
		f     filterFlags
		page  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list sites one page at a time",
		Example: `  # Archaeological sites hosting events in January, cheapest first
  $ heritagectl sites list -c site_archeologique --from 2025-01-01 --to 2025-01-31 --max-price 500

  # Second page of museums, as a table
  $ heritagectl sites list -c musee --page 2 --view list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := f.store(cmd)
			if err != nil {
				return err
			}
			st := store.Snapshot()

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			if !h.List(ctx, st.SiteFilter(), page, limit) {
				return hookError(h)
			}
			state := h.State()
			return a.printer.Sites(state.Items, &state.Pagination, st.View)
		},
	}

	f.register(cmd, true)
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultLimit, "Sites per page")
	return cmd
}

func newSitesSearchCommand(a *app) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "search sites by name, description or location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := f.store(cmd)
			if err != nil {
				return err
			}
			st := store.Snapshot()

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			if !h.Search(ctx, args[0], st.SiteFilter()) {
				return hookError(h)
			}
			return a.printer.Sites(h.State().Items, nil, st.View)
		},
	}

	f.register(cmd, false)
	return cmd
}

func newSitesFiltersCommand(a *app) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "print the filter state the given flags resolve to",
		Long: `Print the filter state the given flags resolve to. The output can be saved
and passed back with --filters.`,
		Example: `  $ heritagectl sites filters -c musee -w Alger --asc > musees.yaml
  $ heritagectl sites list --filters musees.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := f.store(cmd)
			if err != nil {
				return err
			}
			return a.printer.Filters(store.Snapshot())
		},
	}

	f.register(cmd, true)
	return cmd
}

func newSitesNearbyCommand(a *app) *cobra.Command {
	var (
		params domain.NearbyParams
		view   string
	)

	cmd := &cobra.Command{
		Use:     "nearby",
		Short:   "list sites around a point, closest first",
		Example: `  $ heritagectl sites nearby --lat 36.7538 --lng 3.0588 --radius 25`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			if !h.Nearby(ctx, params) {
				return hookError(h)
			}
			return a.printer.Sites(h.State().Items, nil, filter.View(view))
		},
	}

	cmd.Flags().Float64Var(&params.Latitude, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&params.Longitude, "lng", 0, "Longitude")
	cmd.Flags().Float64Var(&params.RadiusKm, "radius", 50, "Radius in kilometres")
	cmd.Flags().IntVar(&params.Limit, "limit", domain.DefaultLimit, "Maximum number of sites")
	cmd.Flags().StringVar(&view, "view", string(filter.ViewList), "Table layout: grid or list")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newSitesPopularCommand(a *app) *cobra.Command {
	var (
		limit int
		view  string
	)

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "list the most visited sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			if !h.Popular(ctx, limit) {
				return hookError(h)
			}
			return a.printer.Sites(h.State().Items, nil, filter.View(view))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultLimit, "Maximum number of sites")
	cmd.Flags().StringVar(&view, "view", string(filter.ViewList), "Table layout: grid or list")
	return cmd
}

func newSitesCategoryCommand(a *app) *cobra.Command {
	var (
		params domain.CategoryParams
		view   string
	)

	cmd := &cobra.Command{
		Use:     "category <category>",
		Short:   "list the sites of one category",
		Example: `  $ heritagectl sites category mosquee --wilaya Tlemcen`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Category = domain.Category(args[0])

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			if !h.ByCategory(ctx, params) {
				return hookError(h)
			}
			return a.printer.Sites(h.State().Items, nil, filter.View(view))
		},
	}

	cmd.Flags().StringVarP(&params.Wilaya, "wilaya", "w", "", "Restrict to a wilaya")
	cmd.Flags().IntVar(&params.Limit, "limit", domain.DefaultLimit, "Maximum number of sites")
	cmd.Flags().StringVar(&view, "view", string(filter.ViewList), "Table layout: grid or list")
	return cmd
}

func newSitesGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "show a site with its events and media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID("id", args[0])
			if err != nil {
				return err
			}

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			site, ok := h.GetOne(ctx, id)
			if !ok {
				return hookError(h)
			}
			return a.printer.Site(site)
		},
	}
}

// siteFlags are the writable site fields. Only flags that were set end up in
// the input, so update leaves everything else untouched.
type siteFlags struct {
	file        string
	name        string
	description string
	category    string
	wilaya      string
	commune     string
	lat         float64
	lng         float64
	period      string
	history     string
}

func (f *siteFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "from-file", "f", "", "Read the site from a JSON or YAML document")
	fs.StringVar(&f.name, "name", "", "Site name")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.StringVar(&f.category, "category", "", "Category")
	fs.StringVar(&f.wilaya, "wilaya", "", "Wilaya")
	fs.StringVar(&f.commune, "commune", "", "Commune")
	fs.Float64Var(&f.lat, "lat", 0, "Latitude")
	fs.Float64Var(&f.lng, "lng", 0, "Longitude")
	fs.StringVar(&f.period, "period", "", "Historical period")
	fs.StringVar(&f.history, "history", "", "History")
}

func (f *siteFlags) input(cmd *cobra.Command) (domain.SiteInput, error) {
	var req api.SiteRequest
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return domain.SiteInput{}, fmt.Errorf("failed to read site: %w", err)
		}
		if err := decodeDocument(data, &req); err != nil {
			return domain.SiteInput{}, fmt.Errorf("failed to parse site: %w", err)
		}
	}

	fs := cmd.Flags()
	str := func(flag string, v string, dst **string) {
		if fs.Changed(flag) {
			*dst = &v
		}
	}
	str("name", f.name, &req.Name)
	str("description", f.description, &req.Description)
	str("category", f.category, &req.Category)
	str("wilaya", f.wilaya, &req.Wilaya)
	str("commune", f.commune, &req.Commune)
	if fs.Changed("lat") {
		req.Latitude = &f.lat
	}
	if fs.Changed("lng") {
		req.Longitude = &f.lng
	}
	if fs.Changed("period") || fs.Changed("history") {
		details := domain.SiteDetails{}
		if req.Details != nil {
			details = *req.Details
		}
		if fs.Changed("period") {
			details.Period = f.period
		}
		if fs.Changed("history") {
			details.History = f.history
		}
		req.Details = &details
	}
	return req.Input(), nil
}

// decodeDocument reads JSON or YAML into v using v's JSON field names.
func decodeDocument(data []byte, v any) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func newSitesCreateCommand(a *app) *cobra.Command {
	var f siteFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "add a heritage site",
		Example: `  $ heritagectl sites create --name "Timgad" --category site_archeologique \
      --wilaya Batna --lat 35.4844 --lng 6.4686

  $ heritagectl sites create -f casbah.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			input, err := f.input(cmd)
			if err != nil {
				return err
			}

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			site, ok := h.Create(ctx, input)
			if !ok {
				return hookError(h)
			}
			return a.printer.Site(site)
		},
	}

	f.register(cmd)
	return cmd
}

func newSitesUpdateCommand(a *app) *cobra.Command {
	var f siteFlags

	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "change fields of a heritage site",
		Example: `  $ heritagectl sites update 6f1c... --commune "Casbah" --period "Ottoman"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			id, err := domain.ParseID("id", args[0])
			if err != nil {
				return err
			}
			input, err := f.input(cmd)
			if err != nil {
				return err
			}

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			site, ok := h.Update(ctx, id, input)
			if !ok {
				return hookError(h)
			}
			return a.printer.Site(site)
		},
	}

	f.register(cmd)
	return cmd
}

func newSitesDeleteCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "delete a site with its events and media",
		Long: `Delete a site with its events and media.

You will be prompted to confirm the deletion. Use --force to skip confirmation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			id, err := domain.ParseID("id", args[0])
			if err != nil {
				return err
			}

			if !force {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete site %s with all its events and media?", id),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return fmt.Errorf("failed to read confirmation: %w", err)
				}
				if !confirmed {
					fmt.Fprintln(a.out, "Deletion cancelled.")
					return nil
				}
			}

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			if !h.Delete(ctx, id) {
				return hookError(h)
			}
			output.Success(a.out, "Site %s deleted", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "F", false, "Skip confirmation prompt")
	return cmd
}

func newSitesMediaCommand(a *app) *cobra.Command {
	var meta domain.MediaMetadata
	var kind string

	cmd := &cobra.Command{
		Use:     "media <site-id> <file>",
		Short:   "upload a photo, video, audio or document to a site",
		Example: `  $ heritagectl sites media 6f1c... ./casbah.jpg --title "Vue depuis la citadelle"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			id, err := domain.ParseID("site-id", args[0])
			if err != nil {
				return err
			}

			file, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer file.Close()

			meta.Kind = domain.MediaKind(kind)

			h, err := a.hook()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			upload := sitehook.File{Name: filepath.Base(args[1]), Reader: file}
			media, ok := h.AttachMedia(ctx, id, upload, meta)
			if !ok {
				return hookError(h)
			}
			return a.printer.Media(media)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(domain.MediaImage), "Media type: image, video, audio or document")
	cmd.Flags().StringVar(&meta.Title, "title", "", "Title")
	cmd.Flags().StringVar(&meta.Description, "description", "", "Description")
	return cmd
}
