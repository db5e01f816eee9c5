package kickasm

import (
	"bytes"
	"strings"
	"testing"
)

func TestLabelNormalizesName(t *testing.T) {
	cases := map[string]string{
		"Comic Bakery":  "COMIC_BAKERY",
		"Delta (Remix)": "DELTA_REMIX",
		"already_upper": "ALREADY_UPPER",
		"":               "TUNE",
		"***":            "TUNE",
	}
	for name, want := range cases {
		if got := (Tune{Name: name}).Label(); got != want {
			t.Errorf("Label(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestWriteIncludeRendersConstants(t *testing.T) {
	tunes := []Tune{
		{
			Name:        "Comic Bakery",
			OriginalSID: "comic_bakery.sid",
			NewBase:     0x3000,
			InitAddress: 0x3000,
			PlayAddress: 0x3003,
			SIDBase:     0xD420,
			Songs:       3,
			StartSong:   1,
		},
	}
	var buf bytes.Buffer
	if err := WriteInclude(&buf, tunes); err != nil {
		t.Fatalf("WriteInclude: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		".const COMIC_BAKERY_BASE  = $3000",
		".const COMIC_BAKERY_INIT  = $3000",
		".const COMIC_BAKERY_PLAY  = $3003",
		".const COMIC_BAKERY_SID   = $D420",
		".const COMIC_BAKERY_SONGS = 3",
		".const COMIC_BAKERY_START = 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
}

func TestWriteIncludeMultipleTunes(t *testing.T) {
	tunes := []Tune{
		{Name: "A", NewBase: 0x1000, SIDBase: 0xD400},
		{Name: "B", NewBase: 0x2000, SIDBase: 0xD420},
	}
	var buf bytes.Buffer
	if err := WriteInclude(&buf, tunes); err != nil {
		t.Fatalf("WriteInclude: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "A_BASE") || !strings.Contains(out, "B_BASE") {
		t.Errorf("expected constants for both tunes, got:\n%s", out)
	}
}
