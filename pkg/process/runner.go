// Package process runs a command under a pseudo terminal so its output can
// be highlighted as a live stream without the child detecting a pipe and
// changing its buffering.
package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Runner starts a command on a PTY, mirrors the controlling terminal's
// size, and copies the child's output to a caller-supplied writer.
type Runner struct {
	cmd      *exec.Cmd
	pty      *os.File
	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	copyWg   sync.WaitGroup
	restore  func()
	exitCode int
}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{
		stopChan: make(chan struct{}),
	}
}

// Start launches command with args on a new PTY. The child's output is
// copied to out; stdin is copied to the child, in raw mode when stdin is a
// terminal.
func (r *Runner) Start(command string, args []string, out io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return fmt.Errorf("process already started")
	}

	r.cmd = exec.Command(command, args...)
	r.cmd.Env = os.Environ()

	var err error
	r.pty, err = pty.Start(r.cmd)
	if err != nil {
		r.cmd = nil
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	// Copy terminal size
	if err := r.copyTerminalSize(); err != nil {
		// Log but don't fail - some environments don't have a terminal
		debugf("failed to copy terminal size: %v", err)
	}

	// Track terminal size changes
	r.wg.Add(1)
	go r.monitorTerminalSize()

	// Raw mode so keystrokes reach the child unprocessed
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if state, err := term.MakeRaw(fd); err == nil {
			r.restore = func() { _ = term.Restore(fd, state) }
		}
	}

	ptyFile := r.pty

	go func() {
		// Ends when the PTY closes after the child exits.
		_, _ = io.Copy(ptyFile, os.Stdin)
	}()

	r.copyWg.Add(1)
	go func() {
		defer r.copyWg.Done()
		// Reading the master returns EIO once the child exits; treat the
		// copy ending as EOF either way.
		_, _ = io.Copy(out, ptyFile)
	}()

	return nil
}

// Wait waits for the child to exit, drains its remaining output, closes
// the PTY, and restores the terminal. The returned error is the child's
// wait error; *exec.ExitError indicates a non-zero exit.
func (r *Runner) Wait() error {
	if r.cmd == nil {
		return fmt.Errorf("process not started")
	}

	err := r.cmd.Wait()

	close(r.stopChan)
	r.wg.Wait()

	r.mu.Lock()
	if state := r.cmd.ProcessState; state != nil {
		r.exitCode = state.ExitCode()
	}
	r.mu.Unlock()

	// Let the output copy drain buffered child output before closing.
	r.copyWg.Wait()

	r.mu.Lock()
	if r.pty != nil {
		_ = r.pty.Close()
	}
	r.mu.Unlock()

	_ = r.Stop()

	return err
}

// Stop restores the terminal state. Safe to call more than once.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.restore != nil {
		r.restore()
		r.restore = nil
	}

	return nil
}

// ExitCode returns the exit code of the child process.
func (r *Runner) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode
}

// copyTerminalSize copies the terminal size from stdin to the PTY.
func (r *Runner) copyTerminalSize() error {
	size, err := pty.GetsizeFull(os.Stdin)
	if err != nil {
		return err
	}

	return pty.Setsize(r.pty, size)
}

// monitorTerminalSize mirrors SIGWINCH size changes onto the PTY.
func (r *Runner) monitorTerminalSize() {
	defer r.wg.Done()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGWINCH)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			r.mu.Lock()
			if r.pty != nil {
				if err := r.copyTerminalSize(); err != nil {
					debugf("failed to resize PTY: %v", err)
				}
			}
			r.mu.Unlock()
		case <-r.stopChan:
			return
		}
	}
}

func debugf(format string, args ...any) {
	if os.Getenv("HILIGHT_DEBUG") == "1" {
		fmt.Fprintf(os.Stderr, "hilight: "+format+"\n", args...)
	}
}
