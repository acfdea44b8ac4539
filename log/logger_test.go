package log

import "testing"

func TestLoggerSingleton(t *testing.T) {
	first := Logger()
	second := Logger()

	if first != second {
		t.Fatalf("expected singleton logger instance")
	}

	if err := Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := Nop()
	l.Infow("discarded", "key", "value")
	l.Errorw("discarded", "key", "value")
}
