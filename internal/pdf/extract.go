package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

const MaxSize = 5 << 20

var (
	ErrEmpty    = errors.New("file is empty")
	ErrTooLarge = errors.New("file exceeds 5 MiB")
	ErrNotPDF   = errors.New("file is not a PDF")
	ErrNoText   = errors.New("PDF contains no extractable text")
	ErrParse    = errors.New("PDF could not be parsed")
)

var magic = []byte("%PDF-")

func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Check validates size and magic without parsing.
func Check(data []byte) error {
	switch {
	case len(data) == 0:
		return ErrEmpty
	case len(data) > MaxSize:
		return ErrTooLarge
	case !IsPDF(data):
		return ErrNotPDF
	}
	return nil
}

var spaceRe = regexp.MustCompile(`[ \t]+`)
var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// ExtractText returns the plain text of every page.
func ExtractText(data []byte) (text string, err error) {
	if err := Check(data); err != nil {
		return "", err
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	out := normalize(string(raw))
	if out == "" {
		return "", ErrNoText
	}
	return out, nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
