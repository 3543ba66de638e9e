package channel

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const shutdownGrace = 2 * time.Second

// Process is a Conn to a playback host running as a child process that
// speaks native messaging on its stdin/stdout.
type Process struct {
	*Conn
	cmd    *exec.Cmd
	exited chan struct{}
	logger *slog.Logger
}

// Start launches the host command
func Start(command string, args []string, logger *slog.Logger) (*Process, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// os.Pipe instead of cmd.StdoutPipe: Wait must not close the read end
	// while the listener may still be draining frames
	hostIn, toHost, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	fromHost, hostOut, err := os.Pipe()
	if err != nil {
		hostIn.Close()
		toHost.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr := newLineLogger(logger.With("source", "host"))

	cmd := exec.Command(command, args...)
	cmd.Stdin = hostIn
	cmd.Stdout = hostOut
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{hostIn, toHost, fromHost, hostOut} {
			f.Close()
		}
		stderr.Close()
		return nil, fmt.Errorf("failed to start playback host %q: %w", command, err)
	}
	// the child owns its ends now
	hostIn.Close()
	hostOut.Close()

	p := &Process{
		Conn:   NewConn(fromHost, toHost, logger),
		cmd:    cmd,
		exited: make(chan struct{}),
		logger: logger,
	}

	go func() {
		err := cmd.Wait()
		stderr.Close()
		if err != nil {
			logger.Warn("playback host exited", "error", err)
		} else {
			logger.Info("playback host exited")
		}
		close(p.exited)
	}()

	logger.Info("started playback host", "command", command, "pid", cmd.Process.Pid)
	return p, nil
}

// Exited is closed once the host process has terminated
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Close closes the link, giving the host a moment to exit on stdin EOF
// before killing it.
func (p *Process) Close() error {
	err := p.Conn.Close()

	select {
	case <-p.exited:
	case <-time.After(shutdownGrace):
		p.logger.Warn("playback host did not exit, killing it")
		_ = p.cmd.Process.Kill()
		<-p.exited
	}
	return err
}

// lineLogger forwards each line written to it to a logger
type lineLogger struct {
	pw   *io.PipeWriter
	done chan struct{}
}

func newLineLogger(logger *slog.Logger) *lineLogger {
	pr, pw := io.Pipe()
	l := &lineLogger{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			logger.Info("host stderr", "line", scanner.Text())
		}
		pr.Close()
	}()
	return l
}

func (l *lineLogger) Write(p []byte) (int, error) {
	return l.pw.Write(p)
}

func (l *lineLogger) Close() error {
	err := l.pw.Close()
	<-l.done
	return err
}
