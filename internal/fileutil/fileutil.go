// Package fileutil provides helpers for the CSV export files kept in the
// data directory.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// timestampFormat is the compact timestamp suffix of export file names
const timestampFormat = "20060102150405"

var timestampRegexp = regexp.MustCompile(`_(\d{14})$`)

// FileHash returns the hex-encoded sha256 digest of a file
func FileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// GenerateFilename returns the data file name for a survey export taken now
func GenerateFilename(surveyID string) string {
	return GenerateFilenameAt(surveyID, time.Now())
}

// GenerateFilenameAt returns the data file name for a survey export taken at
// the given time
func GenerateFilenameAt(surveyID string, at time.Time) string {
	return fmt.Sprintf("qualtrics_data_%s_%s.csv", surveyID, at.Format(timestampFormat))
}

// FindLatestCSV returns the newest export CSV for a survey in baseDir,
// judged by the timestamp suffix in the file name.
func FindLatestCSV(baseDir, surveyID string) (string, error) {
	pattern := filepath.Join(baseDir, "*"+surveyID+"*.csv")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("globbing %s: %w", pattern, err)
	}

	var latest string
	var latestTS string
	for _, path := range matches {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m := timestampRegexp.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		if m[1] > latestTS {
			latestTS = m[1]
			latest = path
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no %s csv files found in %s", surveyID, baseDir)
	}
	return latest, nil
}

// FileSize returns the size of a file in bytes
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stating file %s: %w", path, err)
	}
	return info.Size(), nil
}
