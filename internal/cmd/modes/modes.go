package modes

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sanirun/sanirun/internal/catalog"
	"github.com/sanirun/sanirun/internal/tools"
	"github.com/sanirun/sanirun/pkg/cmdutils"
	"github.com/sanirun/sanirun/pkg/dependencies"
	"github.com/sanirun/sanirun/pkg/log"
)

// modeInfo is the machine-readable view of a catalog entry printed by
// this command.
type modeInfo struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	RequiresRebuild bool     `yaml:"requires-rebuild"`
	Wrapper         []string `yaml:"wrapper,omitempty,flow"`
	Timeout         string   `yaml:"timeout"`
}

func New() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the supported instrumentation modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if check {
				return checkTools()
			}
			return printModes(cmd)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false,
		"Check that the external tools the modes depend on are installed.")

	return cmd
}

func printModes(cmd *cobra.Command) error {
	var infos []modeInfo
	for _, m := range catalog.Default("") {
		infos = append(infos, modeInfo{
			Name:            m.Name,
			Description:     m.Description,
			RequiresRebuild: m.RequiresRebuild,
			Wrapper:         m.Wrapper,
			Timeout:         m.Timeout.String(),
		})
	}

	bytes, err := yaml.Marshal(infos)
	if err != nil {
		return errors.WithStack(err)
	}
	cmd.Print(string(bytes))
	return nil
}

func checkTools() error {
	keys := dependencies.ForModes(catalog.Default(""))
	deps, err := dependencies.Define(keys)
	if err != nil {
		return err
	}
	ok, err := dependencies.Check(keys, deps, tools.Default)
	if err != nil {
		return err
	}
	if !ok {
		return cmdutils.WrapSilentError(errors.New("missing tools"))
	}
	log.Success("All required tools are installed")
	return nil
}
