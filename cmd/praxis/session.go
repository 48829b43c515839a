package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ehr/praxis/internal/platform/session"
)

func loginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				if !a.interactive() {
					return fmt.Errorf("--username and --password are required without a terminal")
				}
				err := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Username").Value(&username),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				)).RunWithContext(cmd.Context())
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}
			}

			token, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			s, err := a.sessions.Start(token)
			if err != nil {
				return err
			}
			a.logger.Debug().Str("subject", s.Subject).Msg("session started")
			fmt.Fprintln(a.out, describeSession(s))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.End(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.APIToken != "" {
				fmt.Fprintln(a.out, "Using API_TOKEN from the environment")
				return nil
			}
			s, err := a.sessions.Current()
			if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrExpired) {
				fmt.Fprintln(a.out, "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, describeSession(s))
			return nil
		},
	}
}

func describeSession(s *session.Session) string {
	who := s.Subject
	if s.Name != "" && s.Name != s.Subject {
		who = fmt.Sprintf("%s (%s)", s.Name, s.Subject)
	}
	if who == "" {
		who = "unknown user"
	}
	out := "Signed in as " + who
	if len(s.Roles) > 0 {
		out += " [" + strings.Join(s.Roles, ", ") + "]"
	}
	if !s.ExpiresAt.IsZero() {
		out += " until " + s.ExpiresAt.Local().Format(time.DateTime)
	}
	return out
}
