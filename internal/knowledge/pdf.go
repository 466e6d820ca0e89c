package knowledge

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts the text of the first maxPages pages of a PDF.
func loadPDF(path string, maxPages int) (*Base, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	n := total
	if maxPages > 0 && maxPages < total {
		n = maxPages
	}

	// Fonts are shared across pages; caching them avoids re-parsing charmaps.
	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", i, path, err)
		}
		pages = append(pages, text)
	}
	return newBase(path, pages, total), nil
}
