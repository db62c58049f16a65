// Package daemon reproduces the classic fork/setsid/chdir/close-std-fds
// daemonization contract for a Go process, which cannot safely raw-fork
// while goroutines and timers are running. Daemonize instead re-execs
// the current binary with the environment marker stripped of ambiguity,
// detaching it from the controlling terminal via Setsid before the
// re-exec happens.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// reexecEnvVar marks a process that has already been re-launched as a
// daemon, so Daemonize called from that process is a no-op.
const reexecEnvVar = "DNS64NG_DAEMONIZED"

// Daemonize detaches the current process from its controlling terminal
// and re-execs it in the background, redirecting stdin/stdout/stderr to
// /dev/null and changing the working directory to /. It returns true
// when called from the original (non-daemonized) process, in which case
// the caller should exit immediately: the child continues the work.
// It returns false (with a nil error) when called from the already
// re-exec'd child, in which case the caller should proceed normally.
func Daemonize() (spawnedChild bool, err error) {
	if os.Getenv(reexecEnvVar) == "1" {
		if err := postDaemonizeSetup(); err != nil {
			return false, err
		}
		return false, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("daemon: resolve executable: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return false, fmt.Errorf("daemon: open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), reexecEnvVar+"=1")
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("daemon: re-exec: %w", err)
	}
	return true, nil
}

// postDaemonizeSetup mirrors main.cpp's chdir("/") call, run once inside
// the re-exec'd child. Setsid already happened via SysProcAttr in the
// parent that spawned this process.
func postDaemonizeSetup() error {
	return os.Chdir("/")
}
