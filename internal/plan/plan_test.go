package plan

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeTestSID(t *testing.T, dir, name string, loadAddr, initAddr, playAddr uint16, body []byte) string {
	t.Helper()
	const headerLen = 0x7C
	buf := make([]byte, headerLen+len(body))
	copy(buf[0:4], "PSID")
	binary.BigEndian.PutUint16(buf[4:6], 2)
	binary.BigEndian.PutUint16(buf[6:8], headerLen)
	binary.BigEndian.PutUint16(buf[8:10], loadAddr)
	binary.BigEndian.PutUint16(buf[10:12], initAddr)
	binary.BigEndian.PutUint16(buf[12:14], playAddr)
	binary.BigEndian.PutUint16(buf[14:16], 1)
	binary.BigEndian.PutUint16(buf[16:18], 1)
	copy(buf[0x16:], "Test Tune")
	copy(buf[headerLen:], body)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadRejectsEmptyPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte("tunes: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for a plan with no tunes")
	}
}

func TestLoadRejectsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	content := "tunes:\n  - name: incomplete\n    new_base: 0x3000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for a tune missing source/output_path")
	}
}

func TestRunRelocatesAndWritesOutput(t *testing.T) {
	dir := t.TempDir()
	body := []byte{0xA9, 0x00, 0x60} // LDA #$00 ; RTS
	sidPath := writeTestSID(t, dir, "tune.sid", 0x1000, 0x1000, 0x1000, body)
	outPath := filepath.Join(dir, "tune.bin")

	p := BatchPlan{
		IncludePath: filepath.Join(dir, "tunes.asm"),
		Tunes: []TuneEntry{
			{Name: "Tune One", Source: sidPath, NewBase: 0x3000, SIDOffset: 0x20, OutputPath: outPath},
		},
	}

	results := Run(p, 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Err != nil {
		t.Fatalf("Run: %v", r.Err)
	}
	if r.Job.Base != 0x1000 {
		t.Errorf("Job.Base = %#04x, want 0x1000", r.Job.Base)
	}
	if len(r.Result.Bytes) != len(body) {
		t.Errorf("Result.Bytes length = %d, want %d", len(r.Result.Bytes), len(body))
	}
	if r.Tune.InitAddress != 0x3000 {
		t.Errorf("Tune.InitAddress = %#04x, want 0x3000", r.Tune.InitAddress)
	}
	if r.Tune.SIDBase != 0xD420 {
		t.Errorf("Tune.SIDBase = %#04x, want 0xD420", r.Tune.SIDBase)
	}

	written, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile output: %v", err)
	}
	if len(written) != len(body) {
		t.Errorf("written output length = %d, want %d", len(written), len(body))
	}
}

func TestRunReportsPerTuneErrorsIndependently(t *testing.T) {
	dir := t.TempDir()
	body := []byte{0x60}
	goodPath := writeTestSID(t, dir, "good.sid", 0x1000, 0x1000, 0x1000, body)

	p := BatchPlan{
		Tunes: []TuneEntry{
			{Name: "Missing", Source: filepath.Join(dir, "missing.sid"), NewBase: 0x3000, OutputPath: filepath.Join(dir, "missing.bin")},
			{Name: "Good", Source: goodPath, NewBase: 0x3000, OutputPath: filepath.Join(dir, "good.bin")},
		},
	}

	results := Run(p, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Error("expected an error for the missing source file")
	}
	if results[1].Err != nil {
		t.Errorf("expected the good tune to succeed, got %v", results[1].Err)
	}
}
