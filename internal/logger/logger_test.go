package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

// capture routes log output to a buffer for the duration of the test.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("removing %s", "a1")
	Info("opened unit %s", "u1")
	Warn("dropping annotation %d", 3)
	Error("posting annotations: %v", "boom")

	want := "[DEBUG] removing a1\n" +
		"[INFO] opened unit u1\n" +
		"[WARN] dropping annotation 3\n" +
		"[ERROR] posting annotations: boom\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")
	Error("unit %s not saved", "u1")

	if got := buf.String(); got != "[ERROR] unit u1 not saved\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("unit u1")

	if got := buf.String(); got != "\n=== unit u1 ===\n" {
		t.Errorf("unexpected section output: %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
