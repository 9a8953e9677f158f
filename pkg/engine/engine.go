// Package engine orchestrates a full sync run: for each account, resolve
// its identity, enumerate its spaces, filter them, sync each one with
// retries and pacing, and aggregate everything into the published report.
//
// Only configuration errors abort a run. Every other failure is captured
// as data -- an account-level error or a failed outcome -- and the run
// always reaches reporting.
package engine

import (
	"context"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/gifttotost1449/huggingface-sync/pkg/config"
	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
	"github.com/gifttotost1449/huggingface-sync/pkg/report"
	"github.com/gifttotost1449/huggingface-sync/pkg/retry"
	"github.com/gifttotost1449/huggingface-sync/pkg/sync"
)

// An Engine drives one sync run. Accounts are processed sequentially, in
// configuration order, to keep the pacing guarantees simple and the report
// ordering deterministic.
type Engine struct {
	Accounts []config.Account
	Tuning   config.Tuning
	Hub      hub.Client
	Clock    clockwork.Clock
}

// New returns an Engine for the given accounts and tuning.
func New(accounts []config.Account, tuning config.Tuning, hubClient hub.Client) *Engine {
	return &Engine{
		Accounts: accounts,
		Tuning:   tuning,
		Hub:      hubClient,
		Clock:    clockwork.NewRealClock(),
	}
}

// Run executes the sync and publishes the report. The returned report is
// valid even when err is non-nil, except for the publish error itself.
// Cancelling the context stops the run at the next network call or pacing
// wait; the report still reflects everything completed so far.
func (e *Engine) Run(ctx context.Context) (report.Report, error) {
	rep := report.Report{
		GeneratedAt: e.Clock.Now(),
		Root:        e.Tuning.Root,
	}

	policy := retry.Policy{
		MaxRetries:   e.Tuning.MaxRetries,
		InitialDelay: e.Tuning.RetryDelay,
		Clock:        e.Clock,
	}
	syncer := sync.Syncer{Hub: e.Hub}
	pacer := sync.NewPacer(e.Tuning.SpaceDelay)

	for _, account := range e.Accounts {
		rep.Accounts = append(rep.Accounts,
			e.syncAccount(ctx, account, policy, syncer, pacer))

		if ctx.Err() != nil {
			log.Warn("Run cancelled. Publishing a partial report.")
			break
		}
	}

	if err := report.Publish(rep, e.Tuning.ReportPath); err != nil {
		return rep, errors.WithContext(err, "publish report")
	}

	log.WithField("path", e.Tuning.ReportPath).Info("Sync report written")
	return rep, nil
}

func (e *Engine) syncAccount(ctx context.Context, account config.Account,
	policy retry.Policy, syncer sync.Syncer, pacer *sync.Pacer) report.AccountSummary {

	username, err := e.resolveUsername(ctx, account, policy)
	if err != nil {
		name := account.Username
		if name == "" {
			name = "unknown"
		}
		log.WithError(errors.AccountError{Account: name, Err: err}).Error(
			"Failed to resolve account username")
		return report.AccountSummary{
			Username: name,
			Err:      errors.WithContext(err, "resolve username").Error(),
		}
	}

	summary := report.AccountSummary{
		Username: username,
		Folder:   account.DirName(username),
	}

	var spaces []hub.Space
	err = retry.Do(ctx, policy, func() error {
		var listErr error
		spaces, listErr = e.Hub.ListSpaces(ctx, account.Token, username)
		return listErr
	})
	if err != nil {
		log.WithError(errors.AccountError{Account: username, Err: err}).Error(
			"Failed to list spaces")
		summary.Err = errors.WithContext(err, "list spaces").Error()
		return summary
	}

	accountDir := filepath.Join(e.Tuning.Root, summary.Folder)
	for _, space := range spaces {
		if !sync.Included(space, e.Tuning.Include, e.Tuning.Exclude) {
			log.WithField("space", space.ID()).Debug("Space filtered out")
			continue
		}

		summary.Outcomes = append(summary.Outcomes,
			e.syncSpace(ctx, account.Token, space, accountDir, policy, syncer))

		// Pace after every space, success or failure, so a burst of
		// failing spaces hits the Hub no harder than a healthy run.
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return summary
}

func (e *Engine) resolveUsername(ctx context.Context, account config.Account,
	policy retry.Policy) (string, error) {

	if account.Username != "" {
		return account.Username, nil
	}

	var username string
	err := retry.Do(ctx, policy, func() error {
		var whoErr error
		username, whoErr = e.Hub.WhoAmI(ctx, account.Token)
		return whoErr
	})
	return username, err
}

func (e *Engine) syncSpace(ctx context.Context, token string, space hub.Space,
	accountDir string, policy retry.Policy, syncer sync.Syncer) sync.Outcome {

	dir := filepath.Join(accountDir, config.SafeComponent(space.Name))
	start := e.Clock.Now()

	var res sync.Result
	err := retry.Do(ctx, policy, func() error {
		var syncErr error
		res, syncErr = syncer.Sync(ctx, token, space, dir)
		return syncErr
	})
	if err != nil {
		log.WithError(errors.ItemError{Space: space.ID(), Err: err}).Error("Sync failed")
	}

	return sync.NewOutcome(space, res, err, e.Clock.Since(start), e.Clock.Now())
}
