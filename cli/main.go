package main

import (
	"fmt"
	"os"
)

var (
	// Version is set at build time via ldflags
	// Example: go build -ldflags="-X main.Version=v1.2.3"
	Version = "dev"
)

const (
	// Default config path
	defaultConfigPath = "musicid.yaml"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Handle version command
	if command == "version" || command == "--version" || command == "-v" {
		fmt.Printf("musicid version %s\n", Version)
		os.Exit(0)
	}

	switch command {
	case "tag":
		os.Exit(tagCommand(os.Args[2:]))
	case "identify":
		os.Exit(identifyCommand(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `musicid - Identify audio files and recover their tags

USAGE:
    musicid <command> [flags] <path>...

COMMANDS:
    tag         Identify files and write recovered metadata into them
    identify    Identify a single file and print the match without writing
    version     Show version information

FLAGS:
    -h, --help    Show this help message

Run 'musicid <command> -h' for command-specific flags.
`)
}
