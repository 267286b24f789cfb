package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/sanirun/sanirun/util/fileutil"
)

const projectConfigFile = "sanirun.yaml"

//go:embed sanirun.yaml.tmpl
var projectConfigTemplate string

// Config holds the project-level settings of the orchestrator. Command
// line flags take precedence over values from sanirun.yaml, which take
// precedence over the defaults.
type Config struct {
	BuildDir  string        `mapstructure:"build-dir"`
	ReportDir string        `mapstructure:"report-dir"`
	Crate     string        `mapstructure:"crate"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func Default() *Config {
	return &Config{
		BuildDir:  ".",
		ReportDir: ".sanirun-report",
	}
}

// CreateProjectConfig creates a new project config in the given directory
func CreateProjectConfig(configDir string) (string, error) {
	// try to open the target file, returns error if already exists
	configpath := filepath.Join(configDir, projectConfigFile)
	f, err := os.OpenFile(configpath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return configpath, errors.WithStack(err)
		}
		return "", errors.WithStack(err)
	}
	defer f.Close()

	// setup config struct with (default) values
	config := struct{ LastUpdated string }{
		time.Now().Format("2006-01-02"),
	}

	// parse the template and write it to config file
	t, err := template.New("project_config").Parse(projectConfigTemplate)
	if err != nil {
		return "", errors.WithStack(err)
	}

	err = t.Execute(f, config)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return configpath, nil
}

// ParseProjectConfig reads sanirun.yaml from the given directory if it
// exists and returns the resulting config. A missing config file is not
// an error, the defaults apply.
func ParseProjectConfig(dir string) (*Config, error) {
	config := Default()

	configpath := filepath.Join(dir, projectConfigFile)
	exists, err := fileutil.Exists(configpath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configpath)
	v.SetDefault("build-dir", config.BuildDir)
	v.SetDefault("report-dir", config.ReportDir)

	err = v.ReadInConfig()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// viper.Unmarshal doesn't return an error if the timeout value is
	// missing a unit, so we check that manually
	if v.GetString("timeout") != "" {
		_, err = time.ParseDuration(v.GetString("timeout"))
		if err != nil {
			return nil, errors.Errorf("error decoding 'timeout': %v", err)
		}
	}

	err = v.Unmarshal(config)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return config, nil
}
