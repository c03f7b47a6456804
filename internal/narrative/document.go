package narrative

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// separatorWidth is the length of the '=' rule around headings.
const separatorWidth = 70

var separator = strings.Repeat("=", separatorWidth)

// Section is one titled part of a narrative.
type Section struct {
	Number     int      `json:"number,omitempty"`
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// Heading is the display line for the section, e.g. "3. DEMOGRAPHIC INSIGHTS".
func (s Section) Heading() string {
	if s.Number > 0 {
		return fmt.Sprintf("%d. %s", s.Number, s.Title)
	}
	return s.Title
}

// Document is a narrative split into sections. Renderers style headings and
// body text differently.
type Document struct {
	Preamble []string  `json:"preamble,omitempty"`
	Sections []Section `json:"sections"`
	Footer   string    `json:"footer,omitempty"`
}

// Render writes the plain-text form: each heading between two separator lines,
// paragraphs separated by blank lines.
func (d Document) Render() string {
	var b strings.Builder
	for _, p := range d.Preamble {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(separator + "\n")
		b.WriteString(s.Heading() + "\n")
		b.WriteString(separator + "\n")
		for _, p := range s.Paragraphs {
			b.WriteString("\n" + p + "\n")
		}
	}
	if d.Footer != "" {
		b.WriteString("\n" + separator + "\n")
		b.WriteString(d.Footer + "\n")
		b.WriteString(separator + "\n")
	}
	return b.String()
}

// Headings lists the section headings in order.
func (d Document) Headings() []string {
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Heading()
	}
	return out
}

var (
	separatorLine = regexp.MustCompile(`^\s*[=\-_*#~]{10,}\s*$`)
	numberedLine  = regexp.MustCompile(`^(\d{1,2})\.\s+(.+)$`)
)

// ParseDocument splits narrative text into sections. It accepts the rendered
// rule-based form as well as the markdown-flavoured headings AI services tend
// to return ("**1. EXECUTIVE SUMMARY**", "## 2. Performance Analysis").
// Text before the first heading lands in Preamble.
func ParseDocument(text string) Document {
	var (
		doc       Document
		cur       *Section
		para      []string
		afterRule bool
	)

	flush := func() {
		if len(para) == 0 {
			return
		}
		p := strings.Join(para, "\n")
		para = nil
		if cur == nil {
			doc.Preamble = append(doc.Preamble, p)
			return
		}
		cur.Paragraphs = append(cur.Paragraphs, p)
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		if separatorLine.MatchString(trimmed) {
			flush()
			afterRule = true
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}

		if num, title, ok := parseHeading(trimmed, afterRule); ok {
			flush()
			doc.Sections = append(doc.Sections, Section{Number: num, Title: title})
			cur = &doc.Sections[len(doc.Sections)-1]
			afterRule = false
			continue
		}

		// a non-heading line wrapped in separators closes the document
		if afterRule && i+1 < len(lines) && separatorLine.MatchString(strings.TrimSpace(lines[i+1])) {
			flush()
			doc.Footer = trimmed
			afterRule = false
			continue
		}

		afterRule = false
		para = append(para, line)
	}
	flush()
	return doc
}

// parseHeading recognises "N. TITLE" lines and, right after a separator,
// all-caps lines. Markdown emphasis and heading marks are stripped.
func parseHeading(line string, afterRule bool) (int, string, bool) {
	clean := strings.TrimSpace(strings.TrimLeft(line, "#"))
	clean = strings.TrimSpace(strings.Trim(clean, "*_"))
	if clean == "" {
		return 0, "", false
	}
	marked := clean != line

	if m := numberedLine.FindStringSubmatch(clean); m != nil {
		title := strings.TrimSpace(strings.Trim(m[2], "*_:"))
		if (afterRule || marked || isUpper(title)) && len(title) <= 80 {
			n, _ := strconv.Atoi(m[1])
			return n, strings.ToUpper(title), true
		}
		return 0, "", false
	}
	if afterRule && isUpper(clean) && unicode.IsLetter([]rune(clean)[0]) && len(clean) <= 80 {
		return 0, clean, true
	}
	return 0, "", false
}

// isUpper is true when the line has letters and none are lower-case.
func isUpper(s string) bool {
	letters := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters = true
		}
	}
	return letters
}
