package logger_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"go.trai.ch/nixplan/internal/adapters/logger"
)

// capture creates a logger redirected into a buffer and returns what fn logged.
func capture(t *testing.T, fn func(lg *logger.Logger)) string {
	t.Helper()

	lg, ok := logger.New().(*logger.Logger)
	if !ok {
		t.Fatal("expected *logger.Logger from New()")
	}

	var buf bytes.Buffer
	lg.SetOutput(&buf)
	fn(lg)
	return buf.String()
}

func TestLogger_Info(t *testing.T) {
	output := capture(t, func(lg *logger.Logger) {
		lg.Info("plan written")
	})

	if !strings.Contains(output, "plan written") {
		t.Errorf("expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "INFO") {
		t.Errorf("expected output to contain INFO, got: %s", output)
	}
}

func TestLogger_Warn(t *testing.T) {
	output := capture(t, func(lg *logger.Logger) {
		lg.Warn("lockfile older than manifests")
	})

	if !strings.Contains(output, "lockfile older than manifests") {
		t.Errorf("expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "WARN") {
		t.Errorf("expected output to contain WARN, got: %s", output)
	}
}

func TestLogger_Error(t *testing.T) {
	output := capture(t, func(lg *logger.Logger) {
		lg.Error(os.ErrPermission)
	})

	if !strings.Contains(output, "permission denied") {
		t.Errorf("expected output to contain error message, got: %s", output)
	}
	if !strings.Contains(output, "ERROR") {
		t.Errorf("expected output to contain ERROR, got: %s", output)
	}
}
