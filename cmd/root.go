package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	syncCmd "github.com/gifttotost1449/huggingface-sync/cmd/sync"
	"github.com/gifttotost1449/huggingface-sync/cmd/util"
	versionCmd "github.com/gifttotost1449/huggingface-sync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info
// and above.
const verboseLogKey = "HFSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "hf-sync",
		Short:        "Mirror Hugging Face Spaces into a local directory tree.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		syncCmd.New(),
		versionCmd.New(),
	)

	// A bare invocation runs a sync, since that's the only reason to run
	// this binary on a schedule.
	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"sync"})
	}

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
