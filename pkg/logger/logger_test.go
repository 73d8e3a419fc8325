package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerTextOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "game started", String("game_id", "abc"), Int("cards", 12))

	out := buf.String()
	if !strings.Contains(out, "game started") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "game_id=abc") || !strings.Contains(out, "cards=12") {
		t.Errorf("expected fields in output, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("expected caller source in output, got %q", out)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat("json")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Warn(context.Background(), "slow", Duration("delay", 900*time.Millisecond), Bool("locked", true))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "slow" {
		t.Errorf("expected msg=slow, got %v", rec["msg"])
	}
	if rec["locked"] != true {
		t.Errorf("expected locked=true, got %v", rec["locked"])
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug should be emitted after SetLevelString(debug), got %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	l := Named("session").With(String("game_id", "g1"))
	l.Info(context.Background(), "turn resolved", Int("turn", 3))

	out := buf.String()
	if !strings.Contains(out, "session.game_id=g1") {
		t.Errorf("expected grouped field, got %q", out)
	}
	if !strings.Contains(out, "session.turn=3") {
		t.Errorf("expected grouped call field, got %q", out)
	}
}
