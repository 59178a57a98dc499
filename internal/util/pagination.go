package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request resolved to an offset window.
type Page struct {
	Number int
	Size   int
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// ParsePage reads ?page= and ?size= and clamps them.
func ParsePage(page, size string) Page {
	p := Page{Number: ParseIntDefault(page, 1), Size: ParseIntDefault(size, DefaultPageSize)}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

func (p Page) HasNext(total int64) bool { return int64(p.Offset()+p.Size) < total }
