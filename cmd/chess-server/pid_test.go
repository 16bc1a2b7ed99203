package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestPIDFile_WriteAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess-server.pid")

	pf, err := acquirePIDFile(path, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("acquirePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Fatalf("expected pid %d, got %q", os.Getpid(), got)
	}

	pf.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("PID file not removed: %v", err)
	}
}

func TestPIDFile_ReplacesStaleContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess-server.pid")
	if err := os.WriteFile(path, []byte("not a pid at all, longer than ours\n"), 0644); err != nil {
		t.Fatal(err)
	}

	pf, err := acquirePIDFile(path, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("acquirePIDFile: %v", err)
	}
	defer pf.Release()

	data, _ := os.ReadFile(path)
	if got := string(data); got != strconv.Itoa(os.Getpid())+"\n" {
		t.Fatalf("old content not replaced: %q", got)
	}
}

func TestPIDFile_LockRefusesSecondInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess-server.pid")

	first, err := acquirePIDFile(path, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("acquirePIDFile: %v", err)
	}

	_, err = acquirePIDFile(path, true, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected an already-running error, got %v", err)
	}

	first.Release()
	second, err := acquirePIDFile(path, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("lock not released: %v", err)
	}
	second.Release()
}

func TestReadPID(t *testing.T) {
	tests := []struct {
		content string
		want    int
		ok      bool
	}{
		{"4242\n", 4242, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-3", 0, false},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "pid")
		if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
			t.Fatal(err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := readPID(f)
		f.Close()
		if got != tt.want || ok != tt.ok {
			t.Errorf("readPID(%q) = %d, %v; want %d, %v", tt.content, got, ok, tt.want, tt.ok)
		}
	}
}
