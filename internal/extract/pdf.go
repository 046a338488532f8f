package extract

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts the plain text of every page, in page order. Layout,
// images and annotations are ignored; the pipeline only needs flat text.
func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	body, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
