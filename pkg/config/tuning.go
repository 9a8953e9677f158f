package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// Environment variables tuning a sync run. All of them are optional.
const (
	RootKey       = "SYNC_ROOT"
	ReportKey     = "SYNC_REPORT"
	IncludeKey    = "SYNC_INCLUDE"
	ExcludeKey    = "SYNC_EXCLUDE"
	RetriesKey    = "SYNC_RETRIES"
	RetryDelayKey = "SYNC_RETRY_DELAY"
	SpaceDelayKey = "SYNC_SPACE_DELAY"
)

const (
	defaultRoot       = "spaces"
	defaultReport     = "reports/latest.md"
	defaultRetries    = 2
	defaultRetryDelay = 2 * time.Second
)

// Tuning holds the optional settings controlling a run.
type Tuning struct {
	// Root is the directory the mirrored spaces are written under.
	Root string

	// ReportPath is where the Markdown report is published.
	ReportPath string

	// Include and Exclude are the space filter patterns. Each pattern is
	// either a bare space name or an owner/name pair.
	Include []string
	Exclude []string

	// MaxRetries is the number of additional attempts after the first
	// failure of a remote operation.
	MaxRetries int

	// RetryDelay is the delay before the first retry. Subsequent retries
	// back off exponentially from it.
	RetryDelay time.Duration

	// SpaceDelay is the pause between successive space syncs.
	SpaceDelay time.Duration
}

// LoadTuning builds the tuning settings by layering the optional settings
// file over the defaults, and the environment over both.
func LoadTuning() (Tuning, error) {
	tuning := Tuning{
		Root:       defaultRoot,
		ReportPath: defaultReport,
		MaxRetries: defaultRetries,
		RetryDelay: defaultRetryDelay,
	}

	if err := loadSettingsFile(SettingsPath, &tuning); err != nil {
		return Tuning{}, err
	}

	var err error
	if tuning.Root, err = expandPath(getenv(RootKey, tuning.Root)); err != nil {
		return Tuning{}, err
	}
	if tuning.ReportPath, err = expandPath(getenv(ReportKey, tuning.ReportPath)); err != nil {
		return Tuning{}, err
	}
	if tuning.MaxRetries, err = intSetting(RetriesKey, tuning.MaxRetries); err != nil {
		return Tuning{}, err
	}
	if tuning.RetryDelay, err = secondsSetting(RetryDelayKey, tuning.RetryDelay); err != nil {
		return Tuning{}, err
	}
	if tuning.SpaceDelay, err = secondsSetting(SpaceDelayKey, tuning.SpaceDelay); err != nil {
		return Tuning{}, err
	}

	if include := patternList(os.Getenv(IncludeKey)); include != nil {
		tuning.Include = include
	}
	if exclude := patternList(os.Getenv(ExcludeKey)); exclude != nil {
		tuning.Exclude = exclude
	}
	return tuning, nil
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.ConfigError{
			Reason: fmt.Sprintf("could not expand path %q: %s", path, err)}
	}
	return expanded, nil
}

// patternList splits a comma-separated pattern list, dropping empty parts.
func patternList(raw string) []string {
	var patterns []string
	for _, pattern := range strings.Split(raw, ",") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

func intSetting(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.ConfigError{
			Reason: fmt.Sprintf("%s must be a non-negative integer, got %q", key, raw)}
	}
	return value, nil
}

func secondsSetting(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errors.ConfigError{
			Reason: fmt.Sprintf("%s must be a non-negative number of seconds, got %q", key, raw)}
	}
	return secondsDuration(value), nil
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
