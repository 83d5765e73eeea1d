package log

import (
	"testing"

	"github.com/rs/zerolog"
)

// TestInitRebindsComponentLogger checks that reconfiguring the global
// logger reaches the component loggers, so packages reading them at
// call time pick up the new level.
func TestInitRebindsComponentLogger(t *testing.T) {
	defer Init("warn", false)

	Init("debug", true)
	if got := Logger.GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("global level = %s, want debug", got)
	}
	if got := Wallet.GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("wallet component level = %s, want debug", got)
	}

	Init("error", false)
	if got := Wallet.GetLevel(); got != zerolog.ErrorLevel {
		t.Errorf("wallet component level = %s, want error", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.WarnLevel},
		{"bogus", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
