package cleaner

import (
	"errors"
	"strings"
	"testing"
)

func TestClean_JoinsWrappedLines(t *testing.T) {
	raw := "This sentence was wrapped\nby the page width.\n\nA second paragraph\nalso wrapped."
	want := "This sentence was wrapped by the page width.\n\nA second paragraph also wrapped."

	got := MustClean(raw)
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestClean_Dehyphenation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercase continuation repaired", "inter-\nnational", "international"},
		{"uppercase continuation kept", "co-\nOperation", "co- Operation"},
		{"digit continuation kept", "part-\n2 of the series", "part- 2 of the series"},
		{"hyphen mid-line untouched", "a well-known case", "a well-known case"},
		{"chained wrap repair", "inter-\nnation-\nal relations", "international relations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MustClean(tt.raw); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"inter-\nnational politics\n\nsecond   paragraph\nwrapped here",
		"co-\nOperation between states",
		"",
		"single line",
		"a\n\n\n\nb",
	}

	for _, raw := range inputs {
		once := MustClean(raw)
		twice := MustClean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestClean_CollapsesWhitespaceAndBlankRuns(t *testing.T) {
	got := MustClean("a  b\t c\n\n\n\nnext para")
	want := "a b c\n\nnext para"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestClean_InvalidUTF8(t *testing.T) {
	_, err := Clean("valid prefix \xff\xfe suffix")
	var cleanErr *CleaningError
	if !errors.As(err, &cleanErr) {
		t.Fatalf("expected CleaningError, got %v", err)
	}
}

func TestStripRecurring_RemovesPageFurniture(t *testing.T) {
	units := []string{
		"Running Header\nchapter one body\nRunning Header\nmore text",
		"Running Header\nchapter two body",
		"Running Header\nchapter three body",
	}

	got := StripRecurring(units)
	for i, text := range got {
		if strings.Contains(text, "Running Header") {
			t.Errorf("unit %d still contains furniture: %q", i, text)
		}
	}
	if !strings.Contains(got[0], "chapter one body") || !strings.Contains(got[0], "more text") {
		t.Errorf("unit 0 lost real content: %q", got[0])
	}
}

func TestStripRecurring_KeepsLinesBelowThreshold(t *testing.T) {
	units := []string{
		"Shared Line\nbody one",
		"Shared Line\nbody two",
		"body three",
	}

	got := StripRecurring(units)
	if !strings.Contains(got[0], "Shared Line") || !strings.Contains(got[1], "Shared Line") {
		t.Errorf("line recurring in only 2 units must be kept: %q / %q", got[0], got[1])
	}
}

func TestStripRecurring_IgnoresLongLines(t *testing.T) {
	long := strings.Repeat("this sentence recurs but is far too long to be furniture ", 3)
	units := []string{long + "\na", long + "\nb", long + "\nc"}

	got := StripRecurring(units)
	for i, text := range got {
		if !strings.Contains(text, "this sentence recurs") {
			t.Errorf("unit %d: long recurring line must be kept: %q", i, text)
		}
	}
}
