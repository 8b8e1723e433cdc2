// Package uiscript launches the embedded JavaScript engine that hosts a
// module's UI script (spec.md §1: out of scope, "contracts specified only
// where the core consumes them"; §6's module manifest `ui_script_path`).
// The host only needs to start the engine, feed it a tick, and read back
// whatever it printed — the engine's own DSL and rendering are not our
// concern. Grounded on the teacher's `src/kiss.go`, which attaches a
// client process to a pty because it expects line-buffered TTY semantics;
// the JS engine's tick/console protocol makes the same assumption.
package uiscript

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// ConsoleSymlink mirrors the teacher's /tmp/kisstnc convention: a stable
// path a debugger can attach to even though the underlying pty name
// changes every launch.
const ConsoleSymlink = "/tmp/move-anything-uiscript-console"

// Process is a running UI script engine attached to a pty.
type Process struct {
	cmd    *exec.Cmd
	master *os.File
	reader *bufio.Reader
}

// Launch starts the JS engine binary against scriptPath, attaching its
// stdio to a pty so it sees TTY semantics for its tick/console protocol.
func Launch(enginePath, scriptPath string) (*Process, error) {
	cmd := exec.Command(enginePath, scriptPath)

	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("uiscript: open pty: %w", err)
	}
	defer slave.Close()

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		master.Close()
		return nil, fmt.Errorf("uiscript: start %s: %w", enginePath, err)
	}

	os.Remove(ConsoleSymlink)
	os.Symlink(slave.Name(), ConsoleSymlink)

	return &Process{cmd: cmd, master: master, reader: bufio.NewReader(master)}, nil
}

// Tick writes a line-buffered tick request and reads back the engine's
// response line. The pty runs in cooked mode, so the written request is
// echoed back to us before the engine's own reply arrives; Tick skips any
// echoed line that merely repeats what we sent.
func (p *Process) Tick(payload string) (string, error) {
	request := fmt.Sprintf("TICK %s", payload)
	if _, err := fmt.Fprintf(p.master, "%s\n", request); err != nil {
		return "", fmt.Errorf("uiscript: write tick: %w", err)
	}
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("uiscript: read tick response: %w", err)
		}
		if strings.TrimRight(line, "\r\n") == request {
			continue
		}
		return line, nil
	}
}

// Close terminates the engine process and releases the pty. A kill-induced
// exit is expected, not an error worth surfacing to the caller.
func (p *Process) Close() error {
	p.master.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	os.Remove(ConsoleSymlink)
	p.cmd.Wait()
	return nil
}
