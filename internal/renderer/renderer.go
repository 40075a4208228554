// Package renderer turns annotated chapter units into rendered documents.
// The HTML implementation stands in for the black-box layout engine: each
// unit becomes a standalone page, and the compiled document carries a
// generated table of contents ordered by unit number.
package renderer

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/valpere/codextran/internal"
)

// Renderer produces per-unit and compiled documents.
type Renderer interface {
	RenderUnit(unit internal.ChapterUnit) ([]byte, error)
	RenderCompiled(units []internal.ChapterUnit) ([]byte, error)
}

// RenderError reports a unit-scoped rendering failure. Unit 0 marks a
// failure of compiled-document assembly.
type RenderError struct {
	Unit int
	Err  error
}

func (e *RenderError) Error() string {
	if e.Unit == 0 {
		return fmt.Sprintf("renderer: compiled document: %v", e.Err)
	}
	return fmt.Sprintf("renderer: unit %d: %v", e.Unit, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// HTML renders units through gomarkdown into self-contained HTML pages.
type HTML struct {
	DocTitle string
}

// NewHTML builds an HTML renderer. docTitle heads the compiled document.
func NewHTML(docTitle string) *HTML {
	return &HTML{DocTitle: docTitle}
}

func (h *HTML) RenderUnit(unit internal.ChapterUnit) ([]byte, error) {
	body, err := unitMarkdown(unit)
	if err != nil {
		return nil, err
	}
	page := pageShell(fmt.Sprintf("%d. %s", unit.Number, unit.Title), toHTML(body))
	return []byte(page), nil
}

func (h *HTML) RenderCompiled(units []internal.ChapterUnit) ([]byte, error) {
	if len(units) == 0 {
		return nil, &RenderError{Err: fmt.Errorf("no units to compile")}
	}

	var toc strings.Builder
	toc.WriteString("<nav class=\"toc\"><h2>Contents</h2><ol>\n")
	var sections strings.Builder

	for _, unit := range units {
		body, err := unitMarkdown(unit)
		if err != nil {
			return nil, &RenderError{Err: fmt.Errorf("unit %d missing: %w", unit.Number, err)}
		}
		anchor := fmt.Sprintf("chapter-%d", unit.Number)
		fmt.Fprintf(&toc, "<li><a href=\"#%s\">%d. %s</a></li>\n", anchor, unit.Number, htmlEscape(unit.Title))
		fmt.Fprintf(&sections, "<section id=%q>\n%s</section>\n", anchor, toHTML(body))
	}
	toc.WriteString("</ol></nav>\n")

	title := h.DocTitle
	if title == "" {
		title = "Compiled Document"
	}
	page := pageShell(title, toc.String()+sections.String())
	return []byte(page), nil
}

// unitMarkdown assembles the markdown source for one unit from its
// translated body. The keyword annotation line, when present, is already
// part of the body text.
func unitMarkdown(unit internal.ChapterUnit) (string, error) {
	text := strings.TrimSpace(unit.TranslatedText)
	if text == "" {
		return "", &RenderError{Unit: unit.Number, Err: fmt.Errorf("no translated text")}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %d. %s\n\n", unit.Number, unit.Title)
	b.WriteString(text)
	b.WriteString("\n")
	return b.String(), nil
}

func toHTML(md string) string {
	opts := html.RendererOptions{Flags: html.CommonFlags}
	renderer := html.NewRenderer(opts)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))
	return string(markdown.Render(doc, renderer))
}

func pageShell(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 42em; margin: 2em auto; font-family: Georgia, serif; line-height: 1.5; }
h1 { color: #1a5276; }
nav.toc { border-bottom: 1px solid #ccc; margin-bottom: 2em; padding-bottom: 1em; }
</style>
</head>
<body>
%s</body>
</html>
`, htmlEscape(title), body)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
