package sync

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gifttotost1449/huggingface-sync/pkg/config"
	"github.com/gifttotost1449/huggingface-sync/pkg/engine"
	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
)

// Exit codes. Automation keys off these; the report holds the detail.
const (
	// ExitOK means the run completed with zero failures.
	ExitOK = 0

	// ExitFailures means the run completed, but at least one space or
	// account failed.
	ExitFailures = 1

	// ExitConfig means the configuration was invalid and nothing was
	// attempted.
	ExitConfig = 2
)

// New creates a new `sync` command.
func New() *cobra.Command {
	var rootFlag, reportFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror every visible Space of the configured accounts.",
		Long: "Mirror the current state of every Hugging Face Space visible to\n" +
			"the configured accounts into the local sync root, and write a\n" +
			"Markdown report of what changed.\n\n" +
			"Accounts are read from " + config.AccountsKey + ": either a JSON list\n" +
			"of {username, token, folder} objects, or a comma-separated list of\n" +
			"bare tokens.",
		Run: func(_ *cobra.Command, _ []string) {
			os.Exit(run(rootFlag, reportFlag))
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "",
		"Root folder for synced spaces. Overrides "+config.RootKey+".")
	cmd.Flags().StringVar(&reportFlag, "report", "",
		"Path to write the sync report. Overrides "+config.ReportKey+".")
	return cmd
}

func run(rootFlag, reportFlag string) int {
	accountsRaw := os.Getenv(config.AccountsKey)
	if accountsRaw == "" {
		accountsRaw = os.Getenv(config.AccountsFallbackKey)
	}

	accounts, err := config.ParseAccounts(accountsRaw)
	if err != nil {
		return configError(err)
	}

	tuning, err := config.LoadTuning()
	if err != nil {
		return configError(err)
	}
	if rootFlag != "" {
		tuning.Root = rootFlag
	}
	if reportFlag != "" {
		tuning.ReportPath = reportFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rep, err := engine.New(accounts, tuning, hub.New("")).Run(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to publish sync report")
		return ExitFailures
	}

	if rep.Failed() {
		return ExitFailures
	}
	return ExitOK
}

func configError(err error) int {
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	return ExitConfig
}
