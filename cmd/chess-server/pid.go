package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

// pidFile records the server PID at the -pid path; with -pid-lock it also
// holds an advisory lock for the life of the process
type pidFile struct {
	path   string
	file   *os.File
	locked bool
	log    zerolog.Logger
}

func acquirePIDFile(path string, lock bool, log zerolog.Logger) (*pidFile, error) {
	log = log.With().Str("component", "pid").Str("path", path).Logger()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open -pid file %s: %w", path, err)
	}
	previous, hasPrevious := readPID(file)

	if lock {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				if hasPrevious {
					return nil, fmt.Errorf("chess-server already running with pid %d (-pid-lock %s)", previous, path)
				}
				return nil, fmt.Errorf("chess-server already running (-pid-lock %s)", path)
			}
			return nil, fmt.Errorf("cannot lock -pid file %s: %w", path, err)
		}
	}

	if hasPrevious && previous != os.Getpid() {
		if processAlive(previous) {
			log.Warn().Int("previous", previous).Msg("PID file names a live process; overwriting (use -pid-lock to refuse)")
		} else {
			log.Info().Int("previous", previous).Msg("replacing stale PID file")
		}
	}

	p := &pidFile{path: path, file: file, locked: lock, log: log}
	if err := p.write(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *pidFile) write() error {
	if err := p.file.Truncate(0); err != nil {
		return fmt.Errorf("cannot truncate -pid file: %w", err)
	}
	if _, err := p.file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		return fmt.Errorf("cannot write -pid file: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("cannot sync -pid file: %w", err)
	}
	return nil
}

// Release unlocks and removes the file
func (p *pidFile) Release() {
	if p.locked {
		if err := syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN); err != nil {
			p.log.Warn().Err(err).Msg("failed to unlock PID file")
		}
	}
	if err := p.file.Close(); err != nil {
		p.log.Warn().Err(err).Msg("failed to close PID file")
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		p.log.Warn().Err(err).Msg("failed to remove PID file")
	}
}

// readPID parses a PID left by an earlier run; empty or garbled files yield false
func readPID(file *os.File) (int, bool) {
	buf := make([]byte, 32)
	n, _ := file.ReadAt(buf, 0)
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive sends signal 0 to pid; EPERM still means it exists
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
