package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sv4u/musicid/identify"
	"github.com/sv4u/musicid/identify/acoustid"
	"github.com/sv4u/musicid/identify/config"
	"github.com/sv4u/musicid/identify/enrich"
	"github.com/sv4u/musicid/identify/metadata"
	"github.com/sv4u/musicid/identify/sample"
)

// Exit codes for tag command.
const (
	TagExitSuccess     = 0
	TagExitConfigError = 1
	TagExitPathError   = 2
	TagExitAllFailed   = 3
	TagExitPartial     = 4
	TagExitInterrupted = 5
)

// tagCommand runs the tag subcommand: identify every file under the given
// paths and write recovered metadata. Returns exit code.
func tagCommand(args []string) int {
	fs := flag.NewFlagSet("tag", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	tags := fs.String("tags", "", "Comma-separated tag fields to write (title,artist,album)")
	overwrite := fs.String("overwrite", "", "Overwrite mode: all, missing, or skip")
	segments := fs.Int("segments", 0, "Number of clips to fingerprint per file")
	minScore := fs.Float64("min-score", 0, "Minimum lookup score (0..1) to accept a match")
	dryRun := fs.Bool("dry-run", false, "Identify and report matches without writing tags")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return TagExitConfigError
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "No files or directories given")
		return TagExitPathError
	}

	cfg, err := loadConfigWithOverrides(resolveConfigPath(fs, *configPath), *tags, *overwrite, *segments, *minScore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return TagExitConfigError
	}

	files, err := identify.Scan(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning paths: %v\n", err)
		return TagExitPathError
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No audio files found")
		return TagExitPathError
	}

	_, logPath, err := CreateRunDir(RunDirTag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log directory: %v\n", err)
		return TagExitPathError
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return TagExitPathError
	}
	restore := RedirectLogToFile(logFile)
	defer restore()
	defer logFile.Close()

	tagger, err := buildTagger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return TagExitConfigError
	}
	tagger.DryRun = *dryRun

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("WARN: signal_received signal=%v", sig)
		fmt.Fprintf(os.Stderr, "Received %v, finishing current file...\n", sig)
		cancel()
	}()

	stats, err := tagger.TagFiles(ctx, files)
	printSummary(stats)

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return TagExitInterrupted
	}

	return tagExitCode(stats)
}

// tagExitCode maps run stats to the command's exit code.
func tagExitCode(stats *identify.RunStats) int {
	attempted := stats.Processed - stats.Skipped
	switch {
	case attempted > 0 && stats.Failed == attempted:
		return TagExitAllFailed
	case stats.Failed > 0:
		return TagExitPartial
	default:
		return TagExitSuccess
	}
}

func printSummary(stats *identify.RunStats) {
	fmt.Printf("\nProcessed %d files: %d tagged, %d skipped, %d unmatched, %d failed\n",
		stats.Processed, stats.Tagged, stats.Skipped, stats.NoMatch, stats.Failed)
}

// resolveConfigPath decides whether to read a config file at all. A config
// file is optional: when the -config flag was left at its default and no
// file exists there, configuration comes from defaults and environment.
// An explicitly given path is always honored so a typo surfaces as an error.
func resolveConfigPath(fs *flag.FlagSet, path string) string {
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	if explicit {
		return path
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ""
	}
	return path
}

// loadConfigWithOverrides loads the config file and applies command line
// overrides before validation.
func loadConfigWithOverrides(configPath, tags, overwrite string, segments int, minScore float64) (*config.MusicIDConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if tags != "" {
		var parsed []string
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				parsed = append(parsed, tag)
			}
		}
		cfg.Identify.Tags = parsed
	}
	if overwrite != "" {
		cfg.Identify.Overwrite = config.OverwriteMode(overwrite)
	}
	if segments > 0 {
		cfg.Identify.Segments = segments
	}
	if minScore > 0 {
		cfg.Identify.MinScore = minScore
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildTagger wires the identification pipeline from configuration.
func buildTagger(cfg *config.MusicIDConfig) (*identify.Tagger, error) {
	client, err := acoustid.NewClient(&acoustid.Config{
		APIKey:            cfg.Identify.APIKey,
		FpcalcPath:        cfg.Identify.FpcalcPath,
		CacheMaxSize:      cfg.Identify.CacheMaxSize,
		CacheTTL:          cfg.Identify.CacheTTL,
		RateLimitEnabled:  cfg.Identify.RateLimitEnabled,
		RateLimitRequests: cfg.Identify.RateLimitRequests,
		RateLimitWindow:   cfg.Identify.RateLimitWindow,
	})
	if err != nil {
		return nil, err
	}
	if !client.FingerprinterAvailable() {
		return nil, fmt.Errorf("fpcalc binary not found: %s", cfg.Identify.FpcalcPath)
	}

	sampler, err := sample.NewProvider(&sample.Config{
		FFmpegPath:  cfg.Identify.FFmpegPath,
		FFprobePath: cfg.Identify.FFprobePath,
		ClipSeconds: cfg.Identify.SegmentDuration,
	})
	if err != nil {
		return nil, err
	}

	var enricher *enrich.Enricher
	if cfg.Enrich.Enabled() {
		enricher, err = enrich.NewEnricher(&enrich.Config{
			ClientID:          cfg.Enrich.ClientID,
			ClientSecret:      cfg.Enrich.ClientSecret,
			MinMatch:          cfg.Enrich.MinMatch,
			EmbedCover:        cfg.Enrich.EmbedCover,
			CacheMaxSize:      cfg.Enrich.CacheMaxSize,
			CacheTTL:          cfg.Enrich.CacheTTL,
			RateLimitEnabled:  cfg.Enrich.RateLimitEnabled,
			RateLimitRequests: cfg.Enrich.RateLimitRequests,
			RateLimitWindow:   cfg.Enrich.RateLimitWindow,
		})
		if err != nil {
			log.Printf("WARN: enrich_disabled error=%v", err)
			enricher = nil
		}
	}

	return identify.NewTagger(&cfg.Identify, client, sampler, metadata.NewEmbedder(), enricher), nil
}
