package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes for identify command.
const (
	IdentifyExitMatched     = 0
	IdentifyExitConfigError = 1
	IdentifyExitNoMatch     = 2
)

// identifyCommand runs the identify subcommand: fingerprint one file and
// print the consensus match without writing anything. Returns exit code.
func identifyCommand(args []string) int {
	fs := flag.NewFlagSet("identify", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	segments := fs.Int("segments", 0, "Number of clips to fingerprint")
	minScore := fs.Float64("min-score", 0, "Minimum lookup score (0..1) to accept a match")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return IdentifyExitConfigError
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Expected exactly one file to identify")
		return IdentifyExitConfigError
	}
	path := fs.Arg(0)

	cfg, err := loadConfigWithOverrides(resolveConfigPath(fs, *configPath), "", "", *segments, *minScore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return IdentifyExitConfigError
	}

	_, logPath, err := CreateRunDir(RunDirIdentify)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log directory: %v\n", err)
		return IdentifyExitConfigError
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return IdentifyExitConfigError
	}
	restore := RedirectLogToFile(logFile)
	defer restore()
	defer logFile.Close()

	tagger, err := buildTagger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return IdentifyExitConfigError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	result, err := tagger.Identify(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Identification failed: %v\n", err)
		return IdentifyExitNoMatch
	}
	if result == nil {
		fmt.Printf("%s: no match\n", path)
		return IdentifyExitNoMatch
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  Title:      %s\n", result.Title)
	fmt.Printf("  Artist:     %s\n", result.Artist)
	if result.Album != "" {
		fmt.Printf("  Album:      %s\n", result.Album)
	}
	fmt.Printf("  Confidence: %.2f (%d votes)\n", result.Confidence, result.Votes)
	return IdentifyExitMatched
}
