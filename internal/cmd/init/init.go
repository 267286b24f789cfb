package init

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sanirun/sanirun/internal/config"
	"github.com/sanirun/sanirun/pkg/cmdutils"
	"github.com/sanirun/sanirun/pkg/log"
	"github.com/sanirun/sanirun/util/fileutil"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up a project for use with sanirun",
		Long: `Creates a commented sanirun.yaml in the current directory which
documents the available settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	return cmd
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.WithStack(err)
	}

	configpath, err := config.CreateProjectConfig(cwd)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			log.Warnf("Config already exists in %s", fileutil.PrettifyPath(configpath))
			return cmdutils.ErrSilent
		}
		log.Error(err, "Failed to create config")
		return err
	}

	log.Successf("Created %s", fileutil.PrettifyPath(configpath))
	return nil
}
