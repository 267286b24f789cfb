package cargo

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/internal/catalog"
	"github.com/sanirun/sanirun/internal/tools"
	"github.com/sanirun/sanirun/pkg/cmdutils"
	"github.com/sanirun/sanirun/pkg/log"
	"github.com/sanirun/sanirun/util/envutil"
	"github.com/sanirun/sanirun/util/executil"
	"github.com/sanirun/sanirun/util/stringutil"
)

// A BuildError indicates that the build collaborator failed to produce
// the test binary. It is a different failure class than a runtime test
// failure: the mode could not even compile.
type BuildError struct {
	// Output is the combined output of the failed build command.
	Output string
	err    error
}

func (e BuildError) Error() string {
	return e.err.Error()
}

func (e BuildError) Unwrap() error {
	return e.err
}

type BuilderOptions struct {
	// BuildDir is the root of the crate to build.
	BuildDir string
	Finder   tools.Finder
	// Stdout and Stderr receive the build output as it is produced, in
	// addition to it being captured for the build log.
	Stdout io.Writer
	Stderr io.Writer
}

type Builder struct {
	*BuilderOptions
}

func NewBuilder(opts *BuilderOptions) *Builder {
	if opts.Finder == nil {
		opts.Finder = tools.Default
	}
	return &Builder{BuilderOptions: opts}
}

// Build compiles the test binary for the given mode without running it.
// The mode's environment overrides are applied to the build as well,
// because the sanitizer flags are passed via RUSTFLAGS.
func (b *Builder) Build(ctx context.Context, mode *catalog.Mode) error {
	cargoPath, err := b.Finder.CargoPath()
	if err != nil {
		return errors.WithMessage(err, "cargo is not installed")
	}

	args := []string{"test", "--no-run"}
	if mode.Target != "" {
		args = append(args, "--target", mode.Target)
	}
	args = append(args, mode.BuildArgs...)

	env, err := envutil.Overlay(os.Environ(), mode.Env)
	if err != nil {
		return err
	}
	// Each mode builds into its own target directory so that
	// differently instrumented artifacts never mix.
	env, err = envutil.Setenv(env, "CARGO_TARGET_DIR", mode.TargetDir)
	if err != nil {
		return err
	}

	var output bytes.Buffer
	stdout := io.Writer(&output)
	stderr := io.Writer(&output)
	if b.Stdout != nil {
		stdout = io.MultiWriter(&output, b.Stdout)
	}
	if b.Stderr != nil {
		stderr = io.MultiWriter(&output, b.Stderr)
	}

	cmd := executil.CommandContext(ctx, cargoPath, args...)
	cmd.Dir = b.BuildDir
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.Debugf("Build command: %s", strings.Join(stringutil.QuotedStrings(cmd.Args), " "))

	err = cmd.Run()
	if err != nil {
		return errors.WithStack(&BuildError{
			Output: output.String(),
			err:    err,
		})
	}
	return nil
}

// HostTriple asks rustc for the host target triple, which the
// sanitizer modes need as an explicit --target.
func HostTriple(ctx context.Context, finder tools.Finder) (string, error) {
	rustcPath, err := finder.RustcPath()
	if err != nil {
		return "", errors.WithMessage(err, "rustc is not installed")
	}

	var output bytes.Buffer
	cmd := executil.CommandContext(ctx, rustcPath, "-vV")
	cmd.Stdout = &output
	err = cmd.Run()
	if err != nil {
		return "", cmdutils.WrapExecError(err, cmd.Cmd)
	}

	for _, line := range strings.Split(output.String(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "host: ") {
			return strings.TrimPrefix(line, "host: "), nil
		}
	}
	return "", errors.Errorf("could not find host triple in rustc output: %s", output.String())
}
