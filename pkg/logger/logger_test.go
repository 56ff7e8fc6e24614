package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"igdroid/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "json format",
			cfg:     &config.LoggingConfig{Level: "info", Format: "json"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			cfg:     &config.LoggingConfig{Level: "shouting"},
			wantErr: true,
		},
		{
			name: "file output",
			cfg: &config.LoggingConfig{
				Level:      "info",
				File:       filepath.Join(t.TempDir(), "igdroid.log"),
				MaxSizeMB:  5,
				MaxBackups: 2,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && l == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"shouting", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger()
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		buf.Reset()
		switch msg {
		case "debug message":
			l.Debug(msg)
		case "info message":
			l.Info(msg)
		case "warn message":
			l.Warn(msg)
		case "error message":
			l.Error(msg)
		}
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("%q not found in output %q", msg, buf.String())
		}
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithFields(map[string]interface{}{
		"source_type":  "hashtag",
		"source_value": "golang",
		"post":         2,
		"fast":         true,
	}).Info("scroll")

	out := buf.String()
	for _, want := range []string{`"source_type":"hashtag"`, `"source_value":"golang"`, `"post":2`, `"fast":true`, "scroll"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output %q", want, out)
		}
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	child := l.WithField("source_value", "golang")
	_ = child.WithField("post", 3)

	buf.Reset()
	child.Info("page")
	if strings.Contains(buf.String(), `"post":3`) {
		t.Error("grandchild field leaked into child logger")
	}
}

func TestTestLoggerCapture(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("source_value", "golang").Warn("page never settled")
	tl.InfoWithFields("saved", map[string]interface{}{"username": "someone"})

	if !tl.HasMessage("page never settled") {
		t.Error("expected warn message to be captured")
	}
	warns := tl.MessagesByLevel("WARN")
	if len(warns) != 1 || warns[0].Fields["source_value"] != "golang" {
		t.Errorf("unexpected warn capture: %+v", warns)
	}
	if tl.HasError() {
		t.Error("no error was logged")
	}
}
