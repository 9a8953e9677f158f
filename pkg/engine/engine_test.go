package engine

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gifttotost1449/huggingface-sync/pkg/config"
	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
	"github.com/gifttotost1449/huggingface-sync/pkg/sync"
)

// fakeHub serves a canned account per token. Tokens map to usernames, and
// usernames to their spaces and files.
type fakeHub struct {
	usernames map[string]string            // token -> username
	spaces    map[string][]hub.Space       // username -> spaces
	files     map[string]map[string]string // space id -> path -> contents
	errors    map[string]error             // username -> ListSpaces error
}

func (f *fakeHub) WhoAmI(_ context.Context, token string) (string, error) {
	username, ok := f.usernames[token]
	if !ok {
		return "", errors.StatusError{Code: 401, URL: "/api/whoami-v2"}
	}
	return username, nil
}

func (f *fakeHub) ListSpaces(_ context.Context, _, author string) ([]hub.Space, error) {
	if err := f.errors[author]; err != nil {
		return nil, err
	}
	return f.spaces[author], nil
}

func (f *fakeHub) ListTree(_ context.Context, _ string, space hub.Space) (
	[]hub.TreeEntry, error) {

	var entries []hub.TreeEntry
	for path, contents := range f.files[space.ID()] {
		entries = append(entries, hub.TreeEntry{
			Type: "file",
			Path: path,
			Size: int64(len(contents)),
			OID:  gitBlobOID(contents),
		})
	}
	return entries, nil
}

func (f *fakeHub) Download(_ context.Context, _ string, space hub.Space, path string) (
	io.ReadCloser, error) {

	contents, ok := f.files[space.ID()][path]
	if !ok {
		return nil, errors.StatusError{Code: 404, URL: path}
	}
	return io.NopCloser(bytes.NewReader([]byte(contents))), nil
}

func gitBlobOID(contents string) string {
	hasher := sha1.New()
	fmt.Fprintf(hasher, "blob %d\x00", len(contents))
	hasher.Write([]byte(contents))
	return hex.EncodeToString(hasher.Sum(nil))
}

func testTuning(t *testing.T) config.Tuning {
	dir := t.TempDir()
	return config.Tuning{
		Root:       filepath.Join(dir, "spaces"),
		ReportPath: filepath.Join(dir, "reports", "latest.md"),
	}
}

func testHub() *fakeHub {
	return &fakeHub{
		usernames: map[string]string{"tok-alice": "alice", "tok-bob": "bob"},
		spaces: map[string][]hub.Space{
			"alice": {
				{Owner: "alice", Name: "demo"},
				{Owner: "alice", Name: "skipme"},
			},
		},
		files: map[string]map[string]string{
			"alice/demo":   {"app.py": "print('hi')", "README.md": "# demo"},
			"alice/skipme": {"app.py": "ignored"},
		},
		errors: map[string]error{},
	}
}

func TestRunHappyPath(t *testing.T) {
	tuning := testTuning(t)
	engine := New([]config.Account{{Token: "tok-alice"}}, tuning, testHub())

	rep, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Failed())

	require.Len(t, rep.Accounts, 1)
	account := rep.Accounts[0]
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "alice", account.Folder)
	assert.Empty(t, account.Err)

	require.Len(t, account.Outcomes, 2)
	assert.Equal(t, sync.StatusAdded, account.Outcomes[0].Status)
	assert.Equal(t, "alice/demo", account.Outcomes[0].Space.ID())

	contents, err := os.ReadFile(
		filepath.Join(tuning.Root, "alice", "demo", "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(contents))

	published, err := os.ReadFile(tuning.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(published), "# Sync Report")
	assert.Contains(t, string(published), "## alice")
}

func TestRunSecondPassUnchanged(t *testing.T) {
	tuning := testTuning(t)
	engine := New([]config.Account{{Token: "tok-alice"}}, tuning, testHub())

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	rep, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Accounts, 1)
	for _, outcome := range rep.Accounts[0].Outcomes {
		assert.Equal(t, sync.StatusUnchanged, outcome.Status)
	}
}

// One account failing to enumerate must not stop the others from syncing.
func TestRunAccountFailureIsIsolated(t *testing.T) {
	tuning := testTuning(t)
	hubClient := testHub()
	hubClient.errors["bob"] = errors.StatusError{Code: 500, URL: "/api/spaces"}

	accounts := []config.Account{
		{Token: "tok-bob", Username: "bob", Folder: "team-bob"},
		{Token: "tok-alice"},
	}
	engine := New(accounts, tuning, hubClient)

	rep, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Failed())

	require.Len(t, rep.Accounts, 2)

	bob := rep.Accounts[0]
	assert.Equal(t, "bob", bob.Username)
	assert.Contains(t, bob.Err, "list spaces")
	assert.Empty(t, bob.Outcomes)

	alice := rep.Accounts[1]
	assert.Empty(t, alice.Err)
	assert.Len(t, alice.Outcomes, 2)
}

func TestRunBadTokenReportsUnknownAccount(t *testing.T) {
	tuning := testTuning(t)
	engine := New([]config.Account{{Token: "bogus"}}, tuning, testHub())

	rep, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Failed())

	require.Len(t, rep.Accounts, 1)
	assert.Equal(t, "unknown", rep.Accounts[0].Username)
	assert.Contains(t, rep.Accounts[0].Err, "resolve username")
}

func TestRunExcludeFilter(t *testing.T) {
	tuning := testTuning(t)
	tuning.Exclude = []string{"skipme"}
	engine := New([]config.Account{{Token: "tok-alice"}}, tuning, testHub())

	rep, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Accounts, 1)
	require.Len(t, rep.Accounts[0].Outcomes, 1)
	assert.Equal(t, "alice/demo", rep.Accounts[0].Outcomes[0].Space.ID())

	_, err = os.Stat(filepath.Join(tuning.Root, "alice", "skipme"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCancelledPublishesPartialReport(t *testing.T) {
	tuning := testTuning(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := New([]config.Account{{Token: "tok-alice"}}, tuning, testHub())
	rep, err := engine.Run(ctx)
	require.NoError(t, err)

	// The cancelled account still gets a row, and the report still lands
	// on disk.
	assert.Len(t, rep.Accounts, 1)
	_, err = os.Stat(tuning.ReportPath)
	assert.NoError(t, err)
}
