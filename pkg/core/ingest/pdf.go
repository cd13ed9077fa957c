package ingest

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes = 4 << 20
	// horizontal gap, in points, above which two spans become separate cells
	cellGap = 6.0
)

// Document is the extracted content of one uploaded file.
type Document struct {
	Name   string  `json:"name,omitempty"`
	Pages  int     `json:"pages"`
	Text   string  `json:"-"`
	Tables []Table `json:"tables,omitempty"`
}

// span is one positioned run of text on a page.
type span struct {
	X, W, Size float64
	S          string
}

// line is a set of spans sharing a baseline.
type line struct {
	Y     float64
	Spans []span
}

// ExtractPDF reads the plain text of every page and reconstructs tables from
// the positioned text rows. The PDF library panics on some malformed files;
// those panics are returned as errors.
func ExtractPDF(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &DocumentError{Format: "pdf", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &DocumentError{Format: "pdf", Err: err}
	}

	doc = &Document{Pages: reader.NumPage()}
	var text strings.Builder
	for i := 1; i <= doc.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err == nil {
			text.WriteString(pageText)
			text.WriteString("\n")
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		lines := make([]line, 0, len(rows))
		for _, row := range rows {
			l := line{Y: float64(row.Position)}
			for _, t := range row.Content {
				l.Spans = append(l.Spans, span{X: t.X, W: t.W, Size: t.FontSize, S: t.S})
			}
			lines = append(lines, l)
		}
		for _, grid := range gridsFromLines(lines) {
			if t, ok := NewTable("pdf", i, grid); ok {
				doc.Tables = append(doc.Tables, t)
			}
		}
	}

	doc.Text = strings.TrimSpace(text.String())
	if doc.Text == "" {
		// fall back to the whole-document reader, which handles some
		// content streams the per-page path skips
		if r, err := reader.GetPlainText(); err == nil {
			b, _ := io.ReadAll(io.LimitReader(r, maxTextBytes))
			doc.Text = strings.TrimSpace(string(b))
		}
	}
	if doc.Text == "" && len(doc.Tables) == 0 {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// gridsFromLines turns positioned lines into cell grids. Spans on one line
// are merged into a cell while the gap between them stays under cellGap.
// Consecutive lines with at least two cells form one grid.
func gridsFromLines(lines []line) [][][]string {
	sorted := make([]line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var grids [][][]string
	var current [][]string
	flush := func() {
		if len(current) >= 2 {
			grids = append(grids, current)
		}
		current = nil
	}
	for _, l := range sorted {
		cells := cellsOf(l.Spans)
		if len(cells) < 2 {
			flush()
			continue
		}
		current = append(current, cells)
	}
	flush()
	return grids
}

// width falls back to the font size per rune when the glyph width is
// unknown.
func (s span) width() float64 {
	if s.W > 0 {
		return s.W
	}
	return s.Size * float64(utf8.RuneCountInString(s.S))
}

func cellsOf(spans []span) []string {
	if len(spans) == 0 {
		return nil
	}
	ordered := make([]span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].X < ordered[j].X })

	var cells []string
	var b strings.Builder
	end := ordered[0].X
	for i, s := range ordered {
		if i > 0 && s.X-end > cellGap {
			if c := strings.TrimSpace(b.String()); c != "" {
				cells = append(cells, c)
			}
			b.Reset()
		}
		b.WriteString(s.S)
		if e := s.X + s.width(); e > end || i == 0 {
			end = e
		}
	}
	if c := strings.TrimSpace(b.String()); c != "" {
		cells = append(cells, c)
	}
	return cells
}
