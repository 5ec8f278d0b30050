// Command analyze loads a contest history export, prints the winnings by
// sport and optionally writes a chart or records export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"contestlens/internal/dataset"
	apierrors "contestlens/internal/errors"
	"contestlens/internal/exporter"
	"contestlens/internal/infrastructure"
	"contestlens/internal/services"
	"contestlens/internal/validation"
	"contestlens/pkg/contracts"
	api "contestlens/pkg/contracts/api/v1"
	"contestlens/pkg/contracts/domain"
)

// options are the parsed command line flags
type options struct {
	file      string
	sport     string
	dateRange string
	search    string
	out       string
	kind      string
	timezone  string
	maxBytes  int64
	logLevel  string
	version   bool
}

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "contest history export (.csv, .tsv, .txt or .xlsx)")
	fs.StringVar(&opts.sport, "sport", "", "only rows for this sport")
	fs.StringVar(&opts.dateRange, "range", "", `date range: "30d", "90d", "180d", "365d" or "all"`)
	fs.StringVar(&opts.search, "q", "", "case-insensitive text search across all columns")
	fs.StringVar(&opts.out, "out", "", "write an export to this .csv or .xlsx path")
	fs.StringVar(&opts.kind, "kind", api.ExportKindChart, "export kind: chart or records")
	fs.StringVar(&opts.timezone, "tz", "America/New_York", "zone for contest dates without an offset")
	fs.Int64Var(&opts.maxBytes, "max-bytes", 32<<20, "refuse inputs larger than this, 0 for no limit")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return opts, errUsage
	}
	if opts.file == "" && !opts.version {
		fmt.Fprintln(stderr, "analyze: -file is required")
		fs.Usage()
		return opts, errUsage
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	location, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return apierrors.NewConfigError("unknown timezone", err).WithContext("tz", opts.timezone)
	}

	logger := infrastructure.NewLogger(stderr, opts.logLevel)
	validator := validation.NewFileValidator(logger)

	if err := validator.ValidateContestHistory(opts.file, opts.maxBytes); err != nil {
		return apierrors.NewParsingError("invalid contest history", err).WithContext("file", opts.file)
	}
	var format string
	if opts.out != "" {
		if format, err = validator.ValidateExportPath(opts.out); err != nil {
			return apierrors.NewExportError("invalid export path", err).WithContext("path", opts.out)
		}
	}

	svc := services.NewDataService(dataset.NewMemoryStore(), logger, services.WithLocation(location))

	f, err := os.Open(opts.file)
	if err != nil {
		return apierrors.NewParsingError("failed to open contest history", err)
	}
	info, err := svc.Ingest(ctx, filepath.Base(opts.file), f)
	f.Close()
	if err != nil {
		return apierrors.NewParsingError("failed to load contest history", err).WithContext("file", opts.file)
	}

	query := api.RecordQuery{Sport: opts.sport, Range: opts.dateRange, Search: opts.search}
	if err := report(ctx, stdout, svc, info, query); err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}

	req := api.ExportRequest{
		Kind:   opts.kind,
		Format: format,
		Query:  query,
	}
	err = exporter.WriteFile(opts.out, func(w io.Writer) error {
		return svc.Export(ctx, req, w)
	})
	if err != nil {
		return apierrors.NewExportError("failed to write export", err).WithContext("path", opts.out)
	}

	fmt.Fprintf(stdout, "\nWrote %s export to %s\n", req.Kind, opts.out)
	logger.Info("Export written", slog.String("path", opts.out), slog.String("kind", req.Kind))
	return nil
}

// report prints the dataset summary, the per-sport table and the number of
// rows matching the filters
func report(ctx context.Context, w io.Writer, svc *services.DataService, info domain.DatasetInfo, q api.RecordQuery) error {
	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	buckets, err := svc.Chart(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d records, %d sports", info.FileName, info.Records, info.Sports)
	if info.Stats.MalformedRows > 0 || summary.InvalidDates > 0 {
		fmt.Fprintf(w, " (%d malformed rows skipped, %d without a contest date)",
			info.Stats.MalformedRows, summary.InvalidDates)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Sport\tEntries\tAmount Spent\tAmount Won\tTotal Winnings\t")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t\n", b.Sport, b.Entries, b.AmountSpent, b.AmountWon, b.TotalWinnings)
	}
	fmt.Fprintf(tw, "Total\t%d\t%.2f\t%.2f\t%.2f\t\n", summary.Entries, summary.AmountSpent, summary.AmountWon, summary.TotalWinnings)
	if err := tw.Flush(); err != nil {
		return err
	}

	if q == (api.RecordQuery{}) {
		return nil
	}
	page, err := svc.Records(ctx, q)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d of %d records match the filters\n", page.TotalRows, info.Records)
	return nil
}
