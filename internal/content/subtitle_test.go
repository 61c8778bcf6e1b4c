package content

import (
	"reflect"
	"testing"

	"github.com/dgallion1/specchunk/internal/doctree"
)

func TestDetectSubtitles_QuotedFirst(t *testing.T) {
	text := "High-speed modes selection\n" +
		"Selecting “HS400” requires the “HS200” tuning step first.\n" +
		"Bus width change\n" +
		"the host then switches the bus width.\n" +
		`The "Enhanced Strobe" option is described later.`
	got := DetectSubtitles(text, "High-speed modes selection", 5)
	want := []string{"HS400", "HS200", "Enhanced Strobe", "Bus width change"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDetectSubtitles_ExclusionsAndLimit(t *testing.T) {
	text := "Table 79 CSD register structure\n" +
		"the fields are listed below.\n" +
		"6.6.2.3 HS400 selection\n" +
		"follow these steps.\n" +
		"Ends with colon:\n" +
		"lowercase follows.\n" +
		"Power up\nvoltage rises.\nClock setup\nfrequency set.\nReset state\ncard resets.\n" +
		"Power up\nrepeated heading.\n" +
		"Fourth heading\nfour.\nFifth heading\nfive.\nSixth heading\nsix."
	got := DetectSubtitles(text, "", 5)
	want := []string{"Power up", "Clock setup", "Reset state", "Fourth heading", "Fifth heading"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDetectSubtitles_NeedsLowercaseContinuation(t *testing.T) {
	text := "Standalone Line\nThe next line starts upper case."
	if got := DetectSubtitles(text, "", 5); len(got) != 0 {
		t.Errorf("expected no subtitles, got %v", got)
	}
}

func TestRecoverTitle(t *testing.T) {
	raw := "JEDEC Standard No. 84-B51\n7.3 CSD Register (cont'd)\n7.3.1 CSD_STRUCTURE [127:126]\n"
	if got := RecoverTitle(raw, doctree.MustParseNumber("7.3"), 2000); got != "CSD Register" {
		t.Errorf("expected %q, got %q", "CSD Register", got)
	}
	if got := RecoverTitle(raw, doctree.MustParseNumber("7"), 2000); got != "" {
		t.Errorf("expected no title for 7, got %q", got)
	}
}

func TestRecoverTitle_RejectsTableRows(t *testing.T) {
	for _, raw := range []string{
		"5 70: V -1.95 V\n",
		"5 Page 12\n",
		"5 Vdd: 1.8: 3.3\n",
		"5 Ab\n",
	} {
		if got := RecoverTitle(raw, doctree.MustParseNumber("5"), 2000); got != "" {
			t.Errorf("raw %q: expected rejection, got %q", raw, got)
		}
	}
	if got := RecoverTitle("5 EMMC\n", doctree.MustParseNumber("5"), 2000); got != "EMMC" {
		t.Errorf("expected short acronym accepted, got %q", got)
	}
}
