package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biasdo/syncclient/internal/api"
	"github.com/biasdo/syncclient/internal/auth"
)

// passwordEnv is read when --password-stdin is not set.
const passwordEnv = "SYNCCLIENT_PASSWORD"

type loginOptions struct {
	*rootOptions
	Username      string
	PasswordStdin bool
}

func newLoginCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &loginOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Exchange a username and password for a session token and store it in
session.token_path. The password is read from $` + passwordEnv + `, or from the
first line of standard input with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "account username (required)")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	cfg, err := loadConfig(opts.rootOptions)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, opts.Verbose, cmd.ErrOrStderr())

	password, err := readPassword(cmd.InOrStdin(), opts.PasswordStdin)
	if err != nil {
		return wrapExitError(exitCommandError, "no password", err)
	}

	tokens := auth.SessionFile{Path: cfg.Session.TokenPath}
	client := newAPIClient(cfg, tokens, logger)

	ctx := commandContext(cmd)
	token, err := client.Login(ctx, opts.Username, password)
	if err != nil {
		if api.IsUnauthorized(err) {
			return wrapExitError(exitFailure, "invalid username or password", err)
		}
		return wrapExitError(exitFailure, "login failed", err)
	}

	if err := tokens.Save(ctx, token); err != nil {
		return wrapExitError(exitCommandError, "failed to store session", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", opts.Username)
	return nil
}

func readPassword(stdin io.Reader, fromStdin bool) (string, error) {
	if !fromStdin {
		if p := os.Getenv(passwordEnv); p != "" {
			return p, nil
		}
		return "", fmt.Errorf("set $%s or use --password-stdin", passwordEnv)
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty password on stdin")
	}
	return line, nil
}

func newLogoutCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and delete the stored token",
		Long: `Invalidate the session on the server and delete the stored token. The
local token is deleted even when the server cannot be reached. A running
client notices on its next reconnect and clears its replica.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, rootOpts)
		},
	}
}

func runLogout(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, opts.Verbose, cmd.ErrOrStderr())

	tokens := auth.SessionFile{Path: cfg.Session.TokenPath}
	ctx := commandContext(cmd)

	if _, ok, err := tokens.Token(ctx); err != nil {
		return wrapExitError(exitCommandError, "failed to read session", err)
	} else if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	client := newAPIClient(cfg, tokens, logger)
	if err := client.Logout(ctx); err != nil {
		logger.Warn("server logout failed, deleting local session anyway", "error", err)
	}

	if err := tokens.Delete(ctx); err != nil {
		return wrapExitError(exitCommandError, "failed to delete session", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
