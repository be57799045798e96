// Package pagestore holds per-page text and word boxes for one source and the
// producers that fill it: a zip of page texts, poppler's pdftotext, and a
// pure-Go PDF reader.
package pagestore

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

// Page is the extracted content of one 1-based page.
type Page struct {
	Number int
	Text   string
	Words  []entity.WordBox // nil when the producer has no coordinates
	Width  float64
}

// HasWords reports whether word-level boxes are available for the page.
func (p *Page) HasWords() bool { return p != nil && len(p.Words) > 0 && p.Width > 0 }

// Store is the page-number keyed content of a single source. It is filled once
// by a producer and only read afterwards.
type Store struct {
	Source string
	Kind   constants.SourceKind
	// Layout is true when the producer can supply word boxes.
	Layout bool

	pages map[int]*Page
}

func NewStore(source string, kind constants.SourceKind, layout bool) *Store {
	return &Store{Source: source, Kind: kind, Layout: layout, pages: map[int]*Page{}}
}

// Put adds a page. Pages with no visible text are dropped. Text is converted
// to NFC with unix line endings so regexes see one form of accented letters.
func (s *Store) Put(p Page) {
	text := strings.ReplaceAll(p.Text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)
	if strings.TrimSpace(text) == "" {
		return
	}
	p.Text = text
	for i := range p.Words {
		p.Words[i].Text = norm.NFC.String(p.Words[i].Text)
		p.Words[i].Page = p.Number
	}
	s.pages[p.Number] = &p
}

func (s *Store) Page(n int) (*Page, bool) {
	p, ok := s.pages[n]
	return p, ok
}

// Text returns the page text, or "" when the page is absent.
func (s *Store) Text(n int) string {
	if p, ok := s.pages[n]; ok {
		return p.Text
	}
	return ""
}

// Numbers returns the page numbers present, ascending.
func (s *Store) Numbers() []int {
	out := make([]int, 0, len(s.pages))
	for n := range s.pages {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (s *Store) Len() int { return len(s.pages) }
