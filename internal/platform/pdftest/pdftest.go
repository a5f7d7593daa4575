// Package pdftest builds small, valid PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes one generated page. Zero sizes default to 200x200 points.
type Page struct {
	Width  float64
	Height float64
	Text   string
}

// Document returns a PDF with one page per argument. Each page carries its text in
// Helvetica plus a framing rectangle.
func Document(pages ...Page) []byte {
	const first = 4
	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", first+2*i))
	}
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	for i, p := range pages {
		w, h := p.Width, p.Height
		if w <= 0 {
			w = 200
		}
		if h <= 0 {
			h = 200
		}
		contentNum := first + 2*i + 1
		bodies = append(bodies, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			w, h, contentNum,
		))
		stream := fmt.Sprintf("10 10 %g %g re S\nBT /F1 24 Tf 20 %g Td (%s) Tj ET\n", w-20, h-20, h/2, escape(p.Text))
		bodies = append(bodies, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}
	return Objects(bodies...)
}

// Objects writes the bodies as objects 1..n with a matching xref table. Object 1 is the
// document catalog. Use it to build deliberately malformed page trees.
func Objects(bodies ...string) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.4\n")

	total := len(bodies) + 1
	offsets := make([]int, total)
	for i, body := range bodies {
		num := i + 1
		offsets[num] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", total)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < total; num++ {
		fmt.Fprintf(buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total, xref)
	return buf.Bytes()
}

// Pages is shorthand for a document whose pages carry the given labels.
func Pages(labels ...string) []byte {
	pages := make([]Page, 0, len(labels))
	for _, l := range labels {
		pages = append(pages, Page{Text: l})
	}
	return Document(pages...)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
