package executil

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/pkg/log"
)

const (
	// Duration we wait after sending a SIGTERM to the process group
	// before we send a SIGKILL. When a use case arises for configuring
	// the grace period, we can make this a configurable attribute of
	// Cmd.
	processGroupTerminationGracePeriod = 3 * time.Second
)

// Cmd provides the same functionality as exec.Cmd plus some utility
// methods.
type Cmd struct {
	*exec.Cmd
	ctx      context.Context
	waitDone chan struct{}
	// When TerminateProcessGroupWhenContextDone is set to true,
	// Cmd.Start() will terminate the process group when the command did
	// not complete before the context is done. In that case,
	// TerminatedAfterContextDone() will return true.
	TerminateProcessGroupWhenContextDone bool
	terminatedAfterContextDone           bool
	terminatedAfterContextDoneMutex      sync.Mutex
}

func Command(name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.Command(name, arg...)}
}

func CommandContext(ctx context.Context, name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.CommandContext(ctx, name, arg...), ctx: ctx}
}

// Start does the same as exec.Cmd.Start(), but also sets up process
// group termination when TerminateProcessGroupWhenContextDone is set.
func (c *Cmd) Start() error {
	if c.Process != nil {
		return errors.New("exec: already started")
	}

	if c.TerminateProcessGroupWhenContextDone {
		c.prepareProcessGroupTermination()
	}

	err := c.Cmd.Start()
	if err != nil {
		return errors.WithStack(err)
	}

	if c.TerminateProcessGroupWhenContextDone && c.ctx != nil {
		pgid, err := c.getpgid()
		if err != nil {
			return err
		}

		c.waitDone = make(chan struct{}, 1)
		go func() {
			select {
			case <-c.ctx.Done():
				c.terminatedAfterContextDoneMutex.Lock()
				// Print the reason for the context being done
				log.Debugf("Terminating process: %s", c.ctx.Err().Error())
				// In contrast to exec.Cmd.Start(), we terminate the
				// whole process group here with a grace period instead
				// of calling c.Process.Kill().
				c.TerminateProcessGroup(pgid)
				c.terminatedAfterContextDone = true
				c.terminatedAfterContextDoneMutex.Unlock()
			case <-c.waitDone:
			}
		}()
	}

	return nil
}

func (c *Cmd) TerminatedAfterContextDone() bool {
	c.terminatedAfterContextDoneMutex.Lock()
	res := c.terminatedAfterContextDone
	c.terminatedAfterContextDoneMutex.Unlock()
	return res
}

// Wait does the same as exec.Cmd.Wait() but also stops the context
// watcher set up by Start().
func (c *Cmd) Wait() error {
	err := c.Cmd.Wait()
	if c.waitDone != nil {
		close(c.waitDone)
	}
	return errors.WithStack(err)
}

// Run is the same as exec.Cmd.Run() but uses the wrapper methods of
// this struct.
func (c *Cmd) Run() error {
	err := c.Start()
	if err != nil {
		return err
	}

	return c.Wait()
}
