package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/querycache"
	"github.com/noah-isme/office-admin/internal/records"
	"github.com/noah-isme/office-admin/internal/session"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/export"
)

// terminal is a signed-in (or not yet) CLI session with its collections.
type terminal struct {
	store   *session.FileStore
	session *session.Session
	set     *entities.Set
	env     records.Env
}

func (a *app) terminal() *terminal {
	path := a.cfg.CLI.TokenFile
	if path == "" {
		path = session.DefaultTokenPath()
	}
	store := session.NewFileStore(path)
	sess, api := session.Bind(
		apiclient.New(apiclient.Options{BaseURL: a.cfg.API.BaseURL, Timeout: a.cfg.API.Timeout, Logger: a.logger}),
		store,
		session.Options{Logger: a.logger},
	)
	cache := querycache.New(querycache.Options{StaleTime: a.cfg.Cache.StaleTime, Logger: a.logger})
	sess.AttachCache(cache)
	return &terminal{
		store:   store,
		session: sess,
		set:     entities.NewSet(api),
		env:     records.Env{Cache: cache, Logger: a.logger},
	}
}

func (t *terminal) resume(ctx context.Context) error {
	if err := t.session.Start(ctx); err != nil {
		if errors.Is(err, appErrors.ErrUpstreamUnavailable) {
			return err
		}
		return fmt.Errorf("not signed in, run officeadmin login: %w", err)
	}
	return nil
}

func (t *terminal) collection(key string) (entities.Collection, error) {
	col, ok := t.set.Collection(key)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q (one of %s)", key, strings.Join(t.set.Keys(), ", "))
	}
	return col, nil
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the credential in the token file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				read, err := readLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
				password = read
			}
			t := a.terminal()
			if err := t.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			id, _ := t.session.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", displayName(id.Subject, email), t.store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := a.terminal()
			if err := t.session.Start(cmd.Context()); err != nil {
				_ = t.store.Clear()
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			if err := t.session.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the stored credential is still accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := a.terminal()
			err := t.session.Start(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api:   %s\n", a.cfg.API.BaseURL)
			fmt.Fprintf(out, "state: %s\n", t.session.State())
			if err != nil {
				if errors.Is(err, appErrors.ErrUpstreamUnavailable) {
					return err
				}
				return nil
			}
			if id, ok := t.session.Identity(); ok {
				fmt.Fprintf(out, "user:  %s\n", displayName(id.Subject, id.Email))
				if !id.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "until: %s\n", id.ExpiresAt.Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "Print a collection as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := a.terminal()
			if err := t.resume(cmd.Context()); err != nil {
				return err
			}
			col, err := t.collection(args[0])
			if err != nil {
				return err
			}
			listing := col.Load(cmd.Context(), t.env, search)
			if listing.Err != nil {
				if listing.Total == 0 {
					return listing.Err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", listing.Err)
			}
			headers, rows := listing.View.Plain()
			if err := printTable(cmd.OutOrStdout(), headers, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d / %d\n", listing.Shown, listing.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "keep rows whose search fields contain this text")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var search, format, out string
	cmd := &cobra.Command{
		Use:   "export <collection>",
		Short: "Write a collection to a CSV or PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var renderer export.Renderer
			switch format {
			case "csv":
				renderer = export.NewCSVExporter()
			case "pdf":
				renderer = export.NewPDFExporter(a.cfg.Export.PDFFont)
			default:
				return fmt.Errorf("unsupported format %q", format)
			}

			t := a.terminal()
			if err := t.resume(cmd.Context()); err != nil {
				return err
			}
			col, err := t.collection(args[0])
			if err != nil {
				return err
			}
			data, err := col.Export(cmd.Context(), t.env, search)
			if err != nil {
				return err
			}
			body, err := renderer.Render(data)
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.ReplaceAll(col.Key(), "/", "-") + "." + renderer.Extension()
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(data.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "export only matching rows")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to <collection>.<format>)")
	return cmd
}

func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = records.Truncate(strings.ReplaceAll(cell, "\n", " "), 40)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func readLine(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(subject, fallback string) string {
	if subject != "" {
		return subject
	}
	return fallback
}
