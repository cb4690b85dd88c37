// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package sqlite

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// pidLock is the advisory single-writer lock for a scheduling database. The
// store refuses a second concurrent writer rather than silently interleaving
// two sessions against the same file.
type pidLock struct {
	path string
}

// acquirePidLock creates the lock file exclusively, recording this process's
// pid. A lock held by a dead process is taken over with a logged warning.
func acquirePidLock(path string) (*pidLock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, xerr.Errorf(xerr.CodeStoreDatabaseFailure,
					"writing store lock file %s", path)
			}
			return &pidLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure,
				"creating store lock file %s", path)
		}

		holder, herr := readLockHolder(path)
		if herr == nil && processAlive(holder) {
			return nil, xerr.New(xerr.CodeStoreLockHeld,
				"scheduling store is already locked by another process",
				xerr.Field("path", path), xerr.Field("pid", holder))
		}

		// Stale lock from a crashed process: remove and retry once.
		slog.Warn("taking over stale store lock", "path", path, "pid", holder)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure,
				"removing stale store lock %s", path)
		}
	}

	return nil, xerr.New(xerr.CodeStoreLockHeld,
		"scheduling store lock contended", xerr.Field("path", path))
}

func (l *pidLock) release() {
	if l == nil {
		return
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("releasing store lock failed", "path", l.path, "error", err)
	}
}

func readLockHolder(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}

// processAlive probes a pid with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
