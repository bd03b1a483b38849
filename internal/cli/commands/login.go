package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/actionculture/heritage/internal/cli/output"
)

func newLoginCommand(a *app) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login [server]",
		Short: "authenticate with the heritage API server",
		Long: `Authenticate with the heritage API server and save credentials locally.

The access token is stored in ~/.heritagectl/config.yaml (or HERITAGECTL_CONFIG)
and used for every later command until it expires or you login again.`,
		Example: `  # Login to the configured server, prompting for credentials
  $ heritagectl login

  # Login to a custom server
  $ heritagectl login http://api.culture.dz:8080 -u admin@culture.dz

  # Read the password from stdin
  $ echo "$PASSWORD" | heritagectl login -u admin@culture.dz --password-stdin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				a.cfg.Server = args[0]
			}

			if email == "" {
				prompt := &survey.Input{Message: "Email:"}
				if err := survey.AskOne(prompt, &email, survey.WithValidator(survey.Required)); err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
			}

			var password string
			if passwordStdin {
				line, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			} else {
				prompt := &survey.Password{Message: "Password:"}
				if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			resp, err := c.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			a.cfg.Server = c.Server()
			a.cfg.Token = resp.AccessToken
			a.cfg.Email = resp.User.Email
			if err := a.cfg.Save(); err != nil {
				return err
			}

			output.Success(a.out, "Logged in to %s as %s (%s)", a.cfg.Server, resp.User.Email, resp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "username", "u", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}
