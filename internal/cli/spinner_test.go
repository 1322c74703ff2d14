package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func quietSpinner(ctx context.Context, msg string) *Spinner {
	s := newSpinnerWithContext(ctx, msg)
	s.w = io.Discard
	return s
}

func TestSpinnerStopNotCancelled(t *testing.T) {
	s := quietSpinner(context.Background(), "Rendering chart...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("Stop without context cancellation should not report Cancelled")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := quietSpinner(ctx, "Rendering chart...")
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	if !s.Cancelled() {
		t.Error("spinner should report Cancelled after context cancellation")
	}
}

func TestSpinnerTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s := quietSpinner(ctx, "Animating...")
	s.Start()
	time.Sleep(60 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report Cancelled after timeout")
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := quietSpinner(context.Background(), "Rendering chart...")
	s.Stop() // before Start
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(context.Background(), "Rendering chart...")
	s.w = &buf
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("Writing files")
	s.Stop()

	if !strings.Contains(buf.String(), "Rendering chart...") {
		t.Errorf("spinner output = %q, want message", buf.String())
	}
}

func TestSpinnerStopWithStatus(t *testing.T) {
	buf := captureOutput(t)

	s := quietSpinner(context.Background(), "Rendering chart...")
	s.Start()
	s.StopWithSuccess("Rendered")
	e := quietSpinner(context.Background(), "Rendering chart...")
	e.Start()
	e.StopWithError("Failed")

	got := buf.String()
	if !strings.Contains(got, "Rendered") || !strings.Contains(got, "Failed") {
		t.Errorf("output = %q", got)
	}
}
