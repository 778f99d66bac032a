package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriterWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.Info().Str("account", "42").Msg("created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["message"] != "created" || entry["account"] != "42" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected a timestamp")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf).With().Str("requestId", "abc").Logger()
	ctx := WithContext(context.Background(), l)

	got := FromContext(ctx)
	got.Info().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"requestId":"abc"`)) {
		t.Errorf("logger from context lost its fields: %s", buf.String())
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if got := FromContext(context.Background()); got == nil {
		t.Fatal("expected the global logger")
	}
	FromContext(context.Background()).Debug().Msg("no request logger")
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != zerolog.DebugLevel {
		t.Error("expected debug")
	}
	if parseLevel("") != zerolog.InfoLevel || parseLevel("loud") != zerolog.InfoLevel {
		t.Error("unknown levels should fall back to info")
	}
}
