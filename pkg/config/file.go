package config

import (
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// SettingsPath is the default path to the optional settings file. Settings
// from the file are overridden by environment variables, which in turn are
// overridden by command-line flags.
const SettingsPath = "~/.hf-sync.yaml"

// SupportedSettingsVersion is the settings file version this binary
// understands. Files that don't specify a version default to it.
const SupportedSettingsVersion = "v1"

// parseSettingsErrTemplate is a template for when the CLI fails to parse
// the settings file. The yaml library constructs errors in a way that loses
// context, so we can only pass the error message on.
const parseSettingsErrTemplate = "Settings file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// settingsFile mirrors the Tuning fields that can be set from the file.
// Pointer fields distinguish "unset" from an explicit zero.
type settingsFile struct {
	Version string `json:"version,omitempty"`

	Root    string   `json:"root,omitempty"`
	Report  string   `json:"report,omitempty"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`

	Retries           *int     `json:"retries,omitempty"`
	RetryDelaySeconds *float64 `json:"retryDelaySeconds,omitempty"`
	SpaceDelaySeconds *float64 `json:"spaceDelaySeconds,omitempty"`
}

// loadSettingsFile applies the settings file at path to the tuning. A
// missing file is not an error -- the file is optional.
func loadSettingsFile(path string, tuning *Tuning) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}

	contents, err := afero.ReadFile(fs, expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WithContext(err, "read settings file")
	}

	parsed := settingsFile{}
	if err := yaml.Unmarshal(contents, &parsed); err != nil {
		return errors.NewFriendlyError(parseSettingsErrTemplate, expanded, err)
	}

	if parsed.Version != "" && parsed.Version != SupportedSettingsVersion {
		return errors.NewFriendlyError(
			"The settings file %q is incompatible with this version of hf-sync.\n"+
				"Expected version %q, but got %q.",
			expanded, SupportedSettingsVersion, parsed.Version)
	}

	// Check for extra fields after the version check, so that a file for a
	// newer version errors on the version rather than its new fields.
	if err := yaml.UnmarshalStrict(contents, &parsed, yaml.DisallowUnknownFields); err != nil {
		return errors.NewFriendlyError(parseSettingsErrTemplate, expanded, err)
	}

	if parsed.Root != "" {
		tuning.Root = parsed.Root
	}
	if parsed.Report != "" {
		tuning.ReportPath = parsed.Report
	}
	if parsed.Include != nil {
		tuning.Include = parsed.Include
	}
	if parsed.Exclude != nil {
		tuning.Exclude = parsed.Exclude
	}
	if parsed.Retries != nil {
		if *parsed.Retries < 0 {
			return errors.ConfigError{Reason: "retries must be non-negative"}
		}
		tuning.MaxRetries = *parsed.Retries
	}
	if parsed.RetryDelaySeconds != nil {
		if *parsed.RetryDelaySeconds < 0 {
			return errors.ConfigError{Reason: "retryDelaySeconds must be non-negative"}
		}
		tuning.RetryDelay = secondsDuration(*parsed.RetryDelaySeconds)
	}
	if parsed.SpaceDelaySeconds != nil {
		if *parsed.SpaceDelaySeconds < 0 {
			return errors.ConfigError{Reason: "spaceDelaySeconds must be non-negative"}
		}
		tuning.SpaceDelay = secondsDuration(*parsed.SpaceDelaySeconds)
	}
	return nil
}
