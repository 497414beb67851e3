package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/session"
)

var (
	loginEmail         string
	loginPasswordStdin bool
	whoamiRefresh      bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the portal and save the session",
	Long: `Sign in with your portal email and password. The session is saved to
session_file and picked up by running TUIs.

Examples:
  portal login --email me@example.com
  echo "$PORTAL_PASSWORD" | portal login --email me@example.com --password-stdin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		email := strings.TrimSpace(loginEmail)
		if email == "" {
			_, _ = fmt.Fprint(out, "Email: ")
			line, err := readLine(in)
			if err != nil {
				return fmt.Errorf("reading email: %w", err)
			}
			email = line
		}

		password, err := readPassword(cmd, in, loginPasswordStdin)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.shutdown()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		sess, err := session.SignIn(ctx, rt.client, cfg.SessionFile, portal.Credentials{
			Email:    email,
			Password: password,
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		u := sess.User()
		_, _ = fmt.Fprintf(out, "Signed in as %s (%s)\n", u.Name, u.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.shutdown()

		sess, err := rt.openSession()
		if errors.Is(err, errNotSignedIn) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Already signed out.")
			return nil
		}
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := sess.SignOut(ctx); err != nil {
			// The local session is gone even when the backend call fails.
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.shutdown()

		sess, err := rt.openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		u := sess.User()
		if whoamiRefresh {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if u, err = sess.RefreshUser(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
		if u.ID != "" {
			_, _ = fmt.Fprintf(out, "id: %s\n", u.ID)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "reload the profile from the backend")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, otherwise a single line.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if !fromStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			b, err := term.ReadPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
