// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robskinney/remix-auth-example/internal/auth"
	"github.com/robskinney/remix-auth-example/internal/httpauth"
)

// Terminal seams, replaced in tests.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// NewUserCmd creates the user command and its subcommands.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserLoginCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create a user account. The password is prompted for when stdin is a
terminal, otherwise it is read from the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := newLogger(cfg, "user")

			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			svc, err := b.service(cfg, nil)
			if err != nil {
				return err
			}
			user, err := svc.Register(ctx, auth.SignupRequest{Email: email, Name: name, Password: password})
			if err != nil {
				return describeSignupError(err)
			}
			cmd.Printf("Created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUserLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the session cookie",
		Long: `Check a user's credentials, issue a session and print the Set-Cookie
header an HTTP client would receive. The password is read as for create,
but asked for once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptLoginPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := newLogger(cfg, "user")

			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			svc, err := b.service(cfg, nil)
			if err != nil {
				return err
			}
			issued, err := svc.Login(ctx, email, password)
			if err != nil {
				return describeLoginError(err)
			}
			cmd.Println(loginCookieHeader(newCookieTransport(cfg), issued))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// loginCookieHeader renders the Set-Cookie header for a fresh session.
func loginCookieHeader(cookies *httpauth.CookieTransport, issued *auth.Issued) string {
	return "Set-Cookie: " + cookies.Serialize(issued.Token, issued.Session.ExpiresAt)
}

// promptLoginPassword reads a password once from a terminal, or the first
// line of a non-terminal in.
func promptLoginPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		return readSecret(f, out, "Password: ")
	}
	return readLine(in)
}

// promptPassword reads a password without echo from a terminal, asking
// twice, or the first line of a non-terminal in.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		first, err := readSecret(f, out, "Password: ")
		if err != nil {
			return "", err
		}
		second, err := readSecret(f, out, "Repeat password: ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", oops.Code("PASSWORD_MISMATCH").Errorf("passwords do not match")
		}
		return first, nil
	}

	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readSecret(f *os.File, out io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(out, prompt)
	pw, err := readPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	return string(pw), nil
}

// describeSignupError turns domain failures into operator-facing messages.
func describeSignupError(err error) error {
	switch auth.KindOf(err) {
	case auth.KindDuplicateEmail:
		return oops.Code("USER_EXISTS").Wrapf(err, "an account with that email already exists")
	case auth.KindInvalidInput:
		return oops.Code("USER_INVALID").Wrapf(err, "invalid account details")
	default:
		return err
	}
}

// describeLoginError keeps a failed login generic for the operator.
func describeLoginError(err error) error {
	if auth.KindOf(err) == auth.KindInvalidCredentials {
		return oops.Code("LOGIN_FAILED").Wrapf(err, "login failed")
	}
	return describeSignupError(err)
}
