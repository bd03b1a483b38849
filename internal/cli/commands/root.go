// Package commands implements the heritagectl command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/actionculture/heritage/internal/cli/output"
	"github.com/actionculture/heritage/internal/client"
	"github.com/actionculture/heritage/internal/config"
	"github.com/actionculture/heritage/internal/sitehook"
)

const version = "0.1.0"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	server  string
	format  string
	verbose bool
	noColor bool

	cfg     *config.CLI
	printer *output.Printer
	logger  *slog.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the command tree writing to out and errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:     "heritagectl",
		Short:   "Action Culture heritage catalogue CLI",
		Version: version,
		Long: `A command-line tool for browsing and managing the Action Culture catalogue of
Algerian heritage sites, their cultural events and media.`,
		Example: `  # Authenticate with the API server
  $ heritagectl login http://localhost:8080 -u admin@culture.dz

  # Browse museums in Alger, sorted by name
  $ heritagectl sites list --category musee --wilaya Alger --sort-by nom --asc

  # Schedule an event interactively
  $ heritagectl events create <site-id> -i`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(fmt.Sprintf("heritagectl version %s\n", version))

	root.PersistentFlags().StringVarP(&a.server, "server", "s", "", "API server address (default from config or HERITAGE_SERVER)")
	root.PersistentFlags().StringVarP(&a.format, "output", "o", string(output.FormatTable), "Output format: table, json or yaml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log API requests to stderr")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable coloured status lines")

	root.AddCommand(newLoginCommand(a))
	root.AddCommand(newSitesCommand(a))
	root.AddCommand(newEventsCommand(a))

	return root
}

// Execute runs heritagectl against the process stdio.
func Execute() error {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		output.Error(os.Stderr, "%v", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}

	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}
	a.printer = output.New(a.out, format)

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.Server = a.server
	}
	a.cfg = cfg
	return nil
}

// context bounds one command by the configured timeout.
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
}

func (a *app) client() (*client.Client, error) {
	return client.New(a.cfg.Server,
		client.WithToken(a.cfg.Token),
		client.WithRateLimit(a.cfg.RatePerSecond),
		client.WithLogger(a.logger),
	)
}

// requireAuth fails early when no token is configured.
func (a *app) requireAuth() error {
	if !a.cfg.IsAuthenticated() {
		return fmt.Errorf("not authenticated, run 'heritagectl login' first")
	}
	return nil
}

// hook wraps a client in a sites hook that logs every state change.
func (a *app) hook() (*sitehook.Hook, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	return sitehook.New(c,
		sitehook.WithLogger(a.logger),
		sitehook.OnChange(func(s sitehook.State) {
			a.logger.Debug("sites state", slog.Bool("loading", s.Loading), slog.Int("items", len(s.Items)))
		}),
	), nil
}
