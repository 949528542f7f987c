package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// getLogDir returns MUSICID_LOG_DIR or ".logs" under current dir.
func getLogDir() string {
	if d := os.Getenv("MUSICID_LOG_DIR"); d != "" {
		return d
	}
	return ".logs"
}

// runDirKind is the type of run.
type runDirKind string

const (
	RunDirTag      runDirKind = "tag"
	RunDirIdentify runDirKind = "identify"
)

// CreateRunDir creates a per-run directory under the log dir
// (.logs/run_<timestamp>_<nanos>/) and returns the run directory path and
// the path to the log file. Nanosecond suffix avoids collision when multiple
// runs start in the same second.
func CreateRunDir(kind runDirKind) (runDir, logPath string, err error) {
	base := getLogDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", "", fmt.Errorf("create log base dir: %w", err)
	}
	now := time.Now()
	ts := strings.ReplaceAll(now.Format(time.RFC3339), ":", "-")
	runDir = filepath.Join(base, "run_"+ts+"_"+strconv.FormatInt(now.UnixNano(), 10))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", "", fmt.Errorf("create run dir: %w", err)
	}
	logName := string(kind) + ".log"
	logPath = filepath.Join(runDir, logName)
	return runDir, logPath, nil
}

// RedirectLogToFile redirects the standard log output to the given writer
// and returns a restore func.
func RedirectLogToFile(w io.Writer) (restore func()) {
	oldFlags := log.Flags()
	oldPrefix := log.Prefix()
	oldOut := log.Writer()
	log.SetOutput(w)
	log.SetFlags(0)
	log.SetPrefix("")
	return func() {
		log.SetOutput(oldOut)
		log.SetFlags(oldFlags)
		log.SetPrefix(oldPrefix)
	}
}
