// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tomtom215/coldwatch/internal/client"
	"github.com/tomtom215/coldwatch/internal/config"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/models"
)

// errUsage marks command line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

// runCheck probes the backend health endpoint once.
func runCheck(ctx context.Context, a *app, stdout io.Writer) error {
	status, err := a.client.CheckHealth(ctx)
	if err != nil {
		fmt.Fprintf(stdout, "backend %s: unreachable: %v\n", a.cfg.API.ResolvedHealthURL(), err)
		return err
	}
	fmt.Fprintf(stdout, "backend %s: %s\n", a.cfg.API.ResolvedHealthURL(), status.Status)
	return nil
}

// exportOptions is the parsed form of the export command line.
type exportOptions struct {
	kind   client.ExportKind
	filter client.ExportFilter
	output string
}

func parseExportArgs(args []string, stderr io.Writer) (*exportOptions, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "start of the range (RFC 3339 or YYYY-MM-DD)")
	to := fs.String("to", "", "end of the range (RFC 3339 or YYYY-MM-DD)")
	room := fs.Int("room", 0, "restrict to one room id")
	status := fs.String("status", "", "alert status filter: ACTIVE, ACKNOWLEDGED or RESOLVED")
	output := fs.String("o", "", "output file; - writes to stdout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: coldwatch export readings|alerts|alerts-history [flags]")
		fs.PrintDefaults()
	}

	// The kind may come before or after the flags.
	var kindArg string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		kindArg, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if kindArg == "" && fs.NArg() > 0 {
		kindArg = fs.Arg(0)
	}
	if kindArg == "" {
		fs.Usage()
		return nil, fmt.Errorf("%w: missing export kind", errUsage)
	}

	kind, err := client.ParseExportKind(kindArg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	opts := &exportOptions{kind: kind, output: *output}
	if opts.filter.From, err = parseTimeFlag("from", *from); err != nil {
		return nil, err
	}
	if opts.filter.To, err = parseTimeFlag("to", *to); err != nil {
		return nil, err
	}
	if !opts.filter.From.IsZero() && !opts.filter.To.IsZero() && opts.filter.To.Before(opts.filter.From) {
		return nil, fmt.Errorf("%w: -to is before -from", errUsage)
	}
	if *room < 0 {
		return nil, fmt.Errorf("%w: -room must be positive", errUsage)
	}
	opts.filter.RoomID = *room
	if *status != "" {
		s := models.AlertStatus(strings.ToUpper(*status))
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: unknown alert status %q", errUsage, *status)
		}
		opts.filter.Status = s
	}
	return opts, nil
}

// parseTimeFlag accepts RFC 3339 timestamps and plain dates (UTC midnight).
func parseTimeFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: -%s %q is not RFC 3339 or YYYY-MM-DD", errUsage, name, v)
}

// runExport signs in, downloads one CSV export and writes it to the output.
func runExport(ctx context.Context, a *app, opts *exportOptions, stdout io.Writer) error {
	if err := a.signIn(ctx); err != nil {
		return err
	}
	if a.auth.Session().UserID() == 0 {
		return errors.New("not signed in: set COLDWATCH_USERNAME and COLDWATCH_PASSWORD")
	}

	data, err := a.client.Export(ctx, opts.kind, opts.filter)
	if err != nil {
		return fmt.Errorf("export %s: %w", opts.kind, err)
	}

	if opts.output == "-" {
		_, err := stdout.Write(data)
		return err
	}
	path := opts.output
	if path == "" {
		path = a.client.ExportFileName(opts.kind)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logging.Ctx(ctx).Info().
		Str("kind", string(opts.kind)).
		Str("file", path).
		Int("bytes", len(data)).
		Msg("Export written")
	fmt.Fprintln(stdout, path)
	return nil
}

// loggingConfig maps the logging section onto the logger's config.
func loggingConfig(cfg config.LoggingConfig) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Level
	lc.Format = cfg.Format
	lc.Caller = cfg.Caller
	return lc
}
