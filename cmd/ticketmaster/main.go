// ticketmaster runs a file of venue commands and writes the output of each
// command to a results file.
//
//	ticketmaster [flags] <input_file>
//
// The output file defaults to <input stem>_output_file.txt next to the
// input. Set JOURNAL_ENABLED=true with DB_* variables to also record every
// command in MySQL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/iliyamo/venue-seat-allocator/internal/command"
	"github.com/iliyamo/venue-seat-allocator/internal/config"
	"github.com/iliyamo/venue-seat-allocator/internal/database"
	"github.com/iliyamo/venue-seat-allocator/internal/journal"
	"github.com/iliyamo/venue-seat-allocator/internal/logger"
	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}
	cfg, cfgErr := config.Load()

	var (
		output    string
		logLevel  string
		logFormat string
		verify    bool
	)
	flagSet := pflag.NewFlagSet("ticketmaster", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&output, "output", "o", "", "output file (default: <input stem>_output_file.txt)")
	flagSet.StringVar(&logLevel, "log-level", cfg.LogLevel, "log level: trace, debug, info, warn, error")
	flagSet.StringVar(&logFormat, "log-format", cfg.LogFormat, "log format: console or json")
	flagSet.BoolVar(&verify, "verify", false, "check venue invariants after every command")
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "usage: ticketmaster [flags] <input_file>")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return errors.New("expected exactly one input file")
	}
	input := flagSet.Arg(0)
	if output == "" {
		output = outputPath(input)
	}

	log := logger.New(logger.Options{Level: logLevel, Format: logFormat, Out: stderr})
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("configuration incomplete, optional features disabled")
		cfg.Journal.Enabled = false
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	opts := []command.SessionOption{command.WithSessionLogger(log)}
	if verify {
		opts = append(opts, command.WithVerify())
	}
	if cfg.Journal.Enabled {
		if j, closeJournal := openJournal(ctx, cfg.Journal, log); j != nil {
			defer closeJournal()
			opts = append(opts, command.WithJournal(j))
		}
	}

	session := command.NewSession(venue.New(venue.WithLogger(log), venue.WithMaxSeats(cfg.MaxSeats)), opts...)
	if err := command.Run(ctx, session, in, out); err != nil {
		return err
	}
	log.Info().Str("input", input).Str("output", output).Msg("commands processed")
	return out.Close()
}

// openJournal returns nil when the database is unreachable; the run then
// continues without a journal.
func openJournal(ctx context.Context, cfg config.JournalConfig, log zerolog.Logger) (command.Journal, func()) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("journal disabled")
		return nil, nil
	}
	j, err := journal.New(ctx, db, cfg.Table)
	if err != nil {
		_ = db.Close()
		log.Warn().Err(err).Msg("journal disabled")
		return nil, nil
	}
	return j, func() { _ = db.Close() }
}

// outputPath derives "<dir>/<stem>_output_file.txt" from the input path.
func outputPath(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), stem+"_output_file.txt")
}
