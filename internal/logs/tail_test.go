package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"choirgrid/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "choirgrid.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLast(t *testing.T) {
	path := writeLog(t, "a\nb\nc\npartial")

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "fewer than available", limit: 2, want: []string{"b", "c"}},
		{name: "more than available", limit: 10, want: []string{"a", "b", "c"}},
		{name: "zero", limit: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := logs.Last(path, tt.limit)
			if err != nil {
				t.Fatalf("Last: %v", err)
			}
			if !slices.Equal(snap.Lines, tt.want) {
				t.Fatalf("lines = %#v, want %#v", snap.Lines, tt.want)
			}
		})
	}

	snap, _ := logs.Last(path, 1)
	if snap.Offset != int64(len("a\nb\nc\n")) {
		t.Fatalf("offset = %d, want end of last complete line", snap.Offset)
	}
}

func TestLastMissingFile(t *testing.T) {
	snap, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(snap.Lines) != 0 || snap.Offset != 0 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
}

func TestSinceTruncatedRestarts(t *testing.T) {
	path := writeLog(t, "x\n")
	snap, err := logs.Since(path, 100)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if !slices.Equal(snap.Lines, []string{"x"}) || snap.Offset != 2 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	snap, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, snap.Offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, []string{"later"}) {
		t.Fatalf("followed lines = %#v", got)
	}
}
