package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitWritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, false)
	Infof("patched %d bytes", 42)

	if !strings.Contains(buf.String(), "patched 42 bytes") {
		t.Errorf("expected log line in output, got %q", buf.String())
	}
}

func TestInitSuppressesDebugWhenNotEnabled(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, false)
	Debugf("should not appear")

	if strings.Contains(buf.String(), "should not appear") {
		t.Error("debug line leaked into non-debug output")
	}
}

func TestInitEmitsDebugWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, true)
	Debugf("visible in debug mode")

	if !strings.Contains(buf.String(), "visible in debug mode") {
		t.Error("expected debug line in output when debug=true")
	}
}
