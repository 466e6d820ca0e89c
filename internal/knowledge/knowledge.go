// Package knowledge loads the course book used as reference material by the
// tutor agents. The book is either a PDF, read page by page, or a plain-text
// export with pages separated by form feeds, as pdftotext writes it.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PageSeparator separates pages in the text export.
const PageSeparator = "\f"

// TruncationNotice is appended by Summary when text was cut.
const TruncationNotice = "\n...\n（文本已截断）"

// Base is an immutable, loaded knowledge base.
type Base struct {
	path       string
	totalPages int
	pages      []string
	text       string
}

// Load reads the book at path and keeps the first maxPages pages. A
// maxPages of zero or less keeps every page. Files ending in .pdf are
// extracted page by page; anything else is read as a text export.
func Load(path string, maxPages int) (*Base, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return loadPDF(path, maxPages)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	return Parse(path, string(raw), maxPages), nil
}

// Parse builds a Base from already-read text.
func Parse(path, raw string, maxPages int) *Base {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	pages := strings.Split(raw, PageSeparator)
	// A trailing form feed does not start a page.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	total := len(pages)
	if maxPages > 0 && maxPages < total {
		pages = pages[:maxPages]
	}
	return newBase(path, pages, total)
}

func newBase(path string, pages []string, total int) *Base {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p)
		b.WriteString("\n\n")
	}

	return &Base{
		path:       path,
		totalPages: total,
		pages:      pages,
		text:       b.String(),
	}
}

// Path returns the file the base was loaded from.
func (b *Base) Path() string { return b.path }

// Text returns the loaded pages joined with blank lines.
func (b *Base) Text() string {
	if b == nil {
		return ""
	}
	return b.text
}

// Pages returns how many pages were kept.
func (b *Base) Pages() int {
	if b == nil {
		return 0
	}
	return len(b.pages)
}

// TotalPages returns how many pages the file holds.
func (b *Base) TotalPages() int {
	if b == nil {
		return 0
	}
	return b.totalPages
}

// Page returns page n (0-based), or "" when out of range.
func (b *Base) Page(n int) string {
	if b == nil || n < 0 || n >= len(b.pages) {
		return ""
	}
	return b.pages[n]
}

// Len returns the text length in characters.
func (b *Base) Len() int {
	return utf8.RuneCountInString(b.Text())
}

// Excerpt returns the first n characters of the text.
func (b *Base) Excerpt(n int) string {
	text := b.Text()
	if n <= 0 {
		return ""
	}
	return truncateRunes(text, n)
}

// Summary is Excerpt with TruncationNotice appended when text was cut.
func (b *Base) Summary(n int) string {
	text := b.Text()
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return truncateRunes(text, n) + TruncationNotice
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
