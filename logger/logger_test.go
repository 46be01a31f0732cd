package logger

import "testing"

func TestNew_DefaultsApplied(t *testing.T) {
	cfg := &Config{}
	l := New(cfg, "voiceid-test")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := New(&Config{Level: "nonsense", Format: "json"}, "voiceid-test")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponent_ReturnsNewLogger(t *testing.T) {
	base := Nop()
	tagged := base.WithComponent("feature-cache")
	if tagged == base {
		t.Fatal("expected a distinct logger instance")
	}
	// must not panic
	tagged.Info("hello", map[string]interface{}{FieldAudioHash: "abc"})
	tagged.WithError(nil).Warn("degraded")
}
