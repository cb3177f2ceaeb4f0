package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

func TestParseDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		input string
		want  time.Time
		err   bool
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, tokyo), false},
		{" 2024-12-31 ", time.Date(2024, 12, 31, 0, 0, 0, 0, tokyo), false},
		{"2024/03/05", time.Time{}, true},
		{"05-03-2024", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := parseDay(tt.input, tokyo)
		if tt.err {
			if err == nil {
				t.Errorf("parseDay(%q): expected error, got %v", tt.input, got)
			}

			continue
		}

		if err != nil {
			t.Errorf("parseDay(%q): unexpected error: %v", tt.input, err)
			continue
		}

		if !got.Equal(tt.want) {
			t.Errorf("parseDay(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseDayEmptyMeansNow(t *testing.T) {
	before := time.Now()

	got, err := parseDay("", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Before(before) || got.Location() != time.UTC {
		t.Errorf("parseDay(\"\") = %v, want current time in UTC", got)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := newLogger("production", tt.level).GetLevel(); got != tt.want {
			t.Errorf("newLogger(%q) level = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestStopped(t *testing.T) {
	if !stopped(fmt.Errorf("ticker loop articles: %w", context.Canceled)) {
		t.Error("wrapped cancellation not detected")
	}

	if stopped(context.DeadlineExceeded) {
		t.Error("deadline treated as a shutdown signal")
	}
}

func TestPrintArticles(t *testing.T) {
	var buf bytes.Buffer

	err := printArticles(&buf, []domain.WebArticle{{
		ID:          7,
		SiteName:    "lwn",
		Title:       "Kernel release notes",
		PublishedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Status:      "todo",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header and one row:\n%s", len(lines), buf.String())
	}

	for _, want := range []string{"7", "lwn", "2024-03-05", "todo", "Kernel release notes"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q does not contain %q", lines[1], want)
		}
	}
}

func TestCommandTree(t *testing.T) {
	paths := []string{
		"migrate",
		"worker",
		"sources",
		"articles run",
		"articles list",
		"articles search",
		"papers ingest",
		"papers note",
		"papers notes",
		"papers list",
		"papers search",
	}

	for _, p := range paths {
		cmd, rest, err := rootCmd.Find(strings.Fields(p))
		if err != nil || len(rest) != 0 || cmd.Name() != strings.Fields(p)[len(strings.Fields(p))-1] {
			t.Errorf("command %q not registered", p)
		}
	}
}
