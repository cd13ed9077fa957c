package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Supported document formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
	FormatText = "text"
)

// FormatOf maps a file name to a document format by extension.
func FormatOf(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".md":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported document type %q", filepath.Ext(name))
}

// Load reads a document of any supported format. Spreadsheets and HTML pages
// contribute their table cells, joined row by row, as the document text so
// the text pass sees them too.
func Load(name string, data []byte) (*Document, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var doc *Document
	switch format {
	case FormatPDF:
		doc, err = ExtractPDF(data)
	case FormatXLSX:
		var tables []Table
		if tables, err = ReadXLSX(bytes.NewReader(data)); err == nil {
			doc = &Document{Pages: len(tables), Tables: tables, Text: tablesText(tables)}
		}
	case FormatHTML:
		var tables []Table
		if tables, err = ReadHTMLTables(bytes.NewReader(data)); err == nil {
			doc = &Document{Pages: 1, Tables: tables, Text: tablesText(tables)}
		}
	case FormatText:
		if !utf8.Valid(data) {
			return nil, &DocumentError{Format: format, Err: fmt.Errorf("not valid UTF-8")}
		}
		doc = &Document{Pages: 1, Text: strings.TrimSpace(string(data))}
	}
	if err != nil {
		return nil, err
	}
	if doc.Text == "" && len(doc.Tables) == 0 {
		return nil, ErrEmptyDocument
	}
	doc.Name = name
	return doc, nil
}

func tablesText(tables []Table) string {
	var b strings.Builder
	for _, t := range tables {
		if t.Title != "" {
			b.WriteString(t.Title)
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(t.Header, " "))
		b.WriteString("\n")
		for _, row := range t.Rows {
			b.WriteString(strings.Join(row, " "))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
