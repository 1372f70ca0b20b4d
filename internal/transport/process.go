package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Process is a child process spoken to over its stdin and stdout.
type Process struct {
	*Stream
	cmd   *exec.Cmd
	stdin io.WriteCloser

	waitOnce sync.Once
	waitErr  error
}

// SpawnConfig adjusts how the child is started.
type SpawnConfig struct {
	Dir    string
	Env    []string
	Stderr io.Writer
}

// Spawn starts name with args and wires its stdin and stdout as a Stream.
// The child's stderr goes to this process's stderr.
func Spawn(ctx context.Context, name string, args ...string) (*Process, error) {
	return SpawnWith(ctx, SpawnConfig{}, name, args...)
}

func SpawnWith(ctx context.Context, cfg SpawnConfig, name string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	cmd.Stderr = cfg.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("transport: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("transport: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("transport: start %s: %w", name, err)
	}

	// stdout is released by Wait, so the stream only owns stdin.
	return &Process{
		Stream: NewStream(struct{ io.Reader }{stdout}, stdin),
		cmd:    cmd,
		stdin:  stdin,
	}, nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Close closes the child's stdin and waits for it to exit.
func (p *Process) Close() error {
	closeErr := p.Stream.Close()
	waitErr := p.Wait()
	if waitErr != nil {
		return waitErr
	}
	return closeErr
}

// Wait blocks until the child exits.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

// ExitCode maps a Wait error to a shell-style exit status: the child's code
// for a normal exit, 127 when the binary could not be run, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	return 1
}
