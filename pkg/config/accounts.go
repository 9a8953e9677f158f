// Package config normalizes the account credentials and tuning settings
// that drive a sync run. Both account input shapes (a structured list of
// objects and a flat comma-separated token list) are parsed here into one
// internal representation -- no other package ever branches on input shape.
package config

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// AccountsKey is the environment variable holding the account list.
const AccountsKey = "HF_ACCOUNTS_JSON"

// AccountsFallbackKey is consulted when AccountsKey is unset.
const AccountsFallbackKey = "HF_ACCOUNTS"

// An Account is one Hugging Face identity to mirror. It is immutable after
// parsing. The token is never written to the report or the filesystem.
type Account struct {
	// Username is the account name on the Hub. When empty, the engine
	// resolves it once via a whoami lookup with the token.
	Username string

	// Token authenticates all remote calls for this account.
	Token string

	// Folder is the directory under the sync root that the account's
	// spaces are mirrored into. Defaults to the username.
	Folder string
}

// DirName returns the directory the account syncs into, given the resolved
// username. An explicit folder wins over the username.
func (a Account) DirName(username string) string {
	if a.Folder != "" {
		return SafeComponent(a.Folder)
	}
	return SafeComponent(username)
}

// rawAccount is one structured entry. The aliased keys match what operators
// have historically put in the secret, so all of them are accepted.
type rawAccount struct {
	Token  string `json:"token"`
	APIKey string `json:"api_key"`
	Key    string `json:"key"`

	Username string `json:"username"`
	Account  string `json:"account"`
	User     string `json:"user"`

	Folder string `json:"folder"`
}

func (r rawAccount) token() string {
	for _, t := range []string{r.Token, r.APIKey, r.Key} {
		if strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	return ""
}

func (r rawAccount) username() string {
	for _, u := range []string{r.Username, r.Account, r.User} {
		if strings.TrimSpace(u) != "" {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

// accountsWrapper is the {"accounts": [...]} input shape.
type accountsWrapper struct {
	Accounts []json.RawMessage `json:"accounts"`
}

// ParseAccounts parses the raw account input into a normalized, ordered
// account list. The input is either a structured list (JSON or YAML,
// optionally wrapped in an "accounts" object) or a flat comma-separated
// list of bare tokens.
func ParseAccounts(raw string) ([]Account, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.ConfigError{
			Reason: AccountsKey + " is required and must contain at least one token"}
	}

	if !isStructured(trimmed) {
		return parseTokenList(trimmed)
	}

	entries, err := splitEntries(trimmed)
	if err != nil {
		return nil, err
	}

	var accounts []Account
	for _, entry := range entries {
		account, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if len(accounts) == 0 {
		return nil, errors.ConfigError{Reason: "account list is empty"}
	}
	return accounts, nil
}

// isStructured reports whether the input looks like a JSON or YAML document
// rather than a flat token list.
func isStructured(input string) bool {
	return strings.HasPrefix(input, "[") ||
		strings.HasPrefix(input, "{") ||
		strings.HasPrefix(input, "- ")
}

func parseTokenList(input string) ([]Account, error) {
	var accounts []Account
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		accounts = append(accounts, Account{Token: token})
	}

	if len(accounts) == 0 {
		return nil, errors.ConfigError{Reason: "token list contains no tokens"}
	}
	return accounts, nil
}

func splitEntries(input string) ([]json.RawMessage, error) {
	if strings.HasPrefix(input, "{") {
		wrapper := accountsWrapper{}
		if err := yaml.Unmarshal([]byte(input), &wrapper); err != nil {
			return nil, errors.ConfigError{
				Reason: "could not parse account object: " + err.Error()}
		}
		if wrapper.Accounts == nil {
			return nil, errors.ConfigError{
				Reason: `account object must contain an "accounts" list`}
		}
		return wrapper.Accounts, nil
	}

	var entries []json.RawMessage
	if err := yaml.Unmarshal([]byte(input), &entries); err != nil {
		return nil, errors.ConfigError{
			Reason: "could not parse account list: " + err.Error()}
	}
	return entries, nil
}

// parseEntry parses one list entry, which is either a bare token string or
// an object with at least a token.
func parseEntry(entry json.RawMessage) (Account, error) {
	var token string
	if err := json.Unmarshal(entry, &token); err == nil {
		token = strings.TrimSpace(token)
		if token == "" {
			return Account{}, errors.ConfigError{Reason: "account token is empty"}
		}
		return Account{Token: token}, nil
	}

	parsed := rawAccount{}
	if err := json.Unmarshal(entry, &parsed); err != nil {
		return Account{}, errors.ConfigError{
			Reason: "each account entry must be a token string or an object"}
	}

	if parsed.token() == "" {
		return Account{}, errors.ConfigError{Reason: "each account must include a token"}
	}

	return Account{
		Username: parsed.username(),
		Token:    parsed.token(),
		Folder:   strings.TrimSpace(parsed.Folder),
	}, nil
}

var unsafeComponent = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeComponent sanitizes a string for use as a single directory name.
func SafeComponent(value string) string {
	cleaned := unsafeComponent.ReplaceAllString(strings.TrimSpace(value), "_")
	cleaned = strings.Trim(cleaned, "._-")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
