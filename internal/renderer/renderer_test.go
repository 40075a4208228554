package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/valpere/codextran/internal"
)

func sampleUnits() []internal.ChapterUnit {
	return []internal.ChapterUnit{
		{Number: 1, Title: "The Beginning", Slug: "the-beginning", TranslatedText: "First paragraph of chapter one.\n\nSecond paragraph.\n\nKeywords: começo (beginning)"},
		{Number: 2, Title: "The Middle", Slug: "the-middle", TranslatedText: "Middle chapter text."},
		{Number: 4, Title: "The End", Slug: "the-end", TranslatedText: "Closing chapter text."},
	}
}

func TestRenderUnit(t *testing.T) {
	r := NewHTML("Test Book")
	out, err := r.RenderUnit(sampleUnits()[0])
	if err != nil {
		t.Fatalf("RenderUnit() error = %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>1. The Beginning</title>",
		"1. The Beginning</h1>",
		"<p>First paragraph of chapter one.</p>",
		"<p>Second paragraph.</p>",
		"Keywords: começo (beginning)",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("RenderUnit() output missing %q", want)
		}
	}
}

func TestRenderUnitEmptyBody(t *testing.T) {
	r := NewHTML("")
	_, err := r.RenderUnit(internal.ChapterUnit{Number: 3, Title: "Empty"})
	if err == nil {
		t.Fatal("RenderUnit() expected error for empty body")
	}
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("RenderUnit() error = %T, want *RenderError", err)
	}
	if rerr.Unit != 3 {
		t.Errorf("RenderError.Unit = %d, want 3", rerr.Unit)
	}
}

func TestRenderCompiled(t *testing.T) {
	r := NewHTML("Test Book")
	out, err := r.RenderCompiled(sampleUnits())
	if err != nil {
		t.Fatalf("RenderCompiled() error = %v", err)
	}
	page := string(out)

	if !strings.Contains(page, "<title>Test Book</title>") {
		t.Error("compiled document missing title")
	}
	for _, want := range []string{
		`<a href="#chapter-1">1. The Beginning</a>`,
		`<a href="#chapter-2">2. The Middle</a>`,
		`<a href="#chapter-4">4. The End</a>`,
		`<section id="chapter-1">`,
		`<section id="chapter-4">`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("compiled document missing %q", want)
		}
	}

	// TOC entries must appear in unit order, before the sections.
	toc1 := strings.Index(page, "#chapter-1")
	toc2 := strings.Index(page, "#chapter-2")
	toc4 := strings.Index(page, "#chapter-4")
	if !(toc1 < toc2 && toc2 < toc4) {
		t.Error("TOC entries out of order")
	}
	if strings.Index(page, `<section id="chapter-1">`) < toc4 {
		t.Error("sections precede table of contents")
	}
}

func TestRenderCompiledEmpty(t *testing.T) {
	r := NewHTML("")
	if _, err := r.RenderCompiled(nil); err == nil {
		t.Fatal("RenderCompiled() expected error for no units")
	}
}

func TestRenderCompiledMissingBody(t *testing.T) {
	r := NewHTML("")
	units := sampleUnits()
	units[1].TranslatedText = ""
	if _, err := r.RenderCompiled(units); err == nil {
		t.Fatal("RenderCompiled() expected error for unit without body")
	}
}

func TestRenderUnitEscapesTitle(t *testing.T) {
	r := NewHTML("")
	out, err := r.RenderUnit(internal.ChapterUnit{
		Number:         5,
		Title:          "Cats & Dogs",
		TranslatedText: "Some text.",
	})
	if err != nil {
		t.Fatalf("RenderUnit() error = %v", err)
	}
	if !strings.Contains(string(out), "<title>5. Cats &amp; Dogs</title>") {
		t.Error("title not escaped in head")
	}
}
