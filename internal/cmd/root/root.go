package root

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	initCmd "github.com/sanirun/sanirun/internal/cmd/init"
	modesCmd "github.com/sanirun/sanirun/internal/cmd/modes"
	runCmd "github.com/sanirun/sanirun/internal/cmd/run"
	"github.com/sanirun/sanirun/pkg/cmdutils"
	"github.com/sanirun/sanirun/pkg/log"
)

func New() *cobra.Command {
	var workdir string

	rootCmd := &cobra.Command{
		Use:   "sanirun",
		Short: "Run a crate's test suite under multiple memory correctness tools",
		// We are using our custom error handling in Execute() instead
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if workdir != "" {
				err := os.Chdir(workdir)
				if err != nil {
					err = errors.WithStack(err)
					log.Error(err, err.Error())
					return cmdutils.ErrSilent
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Show more verbose output, can be helpful for debugging problems")
	cmdutils.ViperMustBindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().StringVarP(&workdir, "directory", "C", "",
		"Change the directory before performing any operations")
	cmdutils.ViperMustBindPFlag("directory", rootCmd.PersistentFlags().Lookup("directory"))

	rootCmd.AddCommand(initCmd.New())
	rootCmd.AddCommand(modesCmd.New())
	rootCmd.AddCommand(runCmd.New())

	return rootCmd
}

// Execute runs the root command and translates errors into the exit
// statuses automation relies on: 0 when all modes passed, 1 when the
// pipeline ran but one or more modes did not pass, 2 when the
// orchestrator itself failed.
func Execute() {
	rootCmd := New()
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	// A completed pipeline with failing modes is not an orchestrator
	// error, its details were already reported
	var pipelineErr *cmdutils.PipelineFailedError
	if errors.As(err, &pipelineErr) {
		os.Exit(1)
	}

	// Errors that are not ErrSilent are not expected and we want to show their full stacktrace
	var silentErr *cmdutils.SilentError
	if !errors.As(err, &silentErr) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), pterm.Style{pterm.Bold, pterm.FgRed}.Sprintf("%+v\n", err))
	}

	// We only want to print the usage message if an IncorrectUsageError
	// was returned or it's an error produced by cobra which was
	// caused by incorrect usage
	var usageErr *cmdutils.IncorrectUsageError
	if errors.As(err, &usageErr) ||
		strings.HasPrefix(err.Error(), "required flag") ||
		strings.HasPrefix(err.Error(), "unknown command") ||
		regexp.MustCompile(`(accepts|requires).*arg\(s\)`).MatchString(err.Error()) {
		// Ensure that there is an extra newline between the error
		// and the usage message
		if !strings.HasSuffix(err.Error(), "\n") {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	}

	os.Exit(2)
}
