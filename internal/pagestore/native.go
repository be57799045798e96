package pagestore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

// glyphRowTolerance groups glyphs whose tops differ by less than this (points) into one row.
const glyphRowTolerance = 2.0

// Native reads PDFs in-process with github.com/ledongthuc/pdf. It is used when
// pdftotext is not installed; glyphs are stitched into words and lines here.
type Native struct {
	gapFactor float64
	logger    *slog.Logger
}

func NewNative(gapFactor float64, logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.Default()
	}
	if gapFactor <= 0 {
		gapFactor = 0.25
	}
	return &Native{gapFactor: gapFactor, logger: logger}
}

func (n *Native) Load(ctx context.Context, path string) (*Store, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	store := NewStore(path, constants.SourcePDF, true)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pg, err := n.page(r, i)
		if err != nil {
			n.logger.Warn("native.page.failed", "path", path, "page", i, "error", err)
			continue
		}
		store.Put(pg)
	}
	return store, nil
}

// page recovers from panics raised by malformed content streams.
func (n *Native) page(r *pdf.Reader, num int) (pg Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("content stream: %v", rec)
		}
	}()
	p := r.Page(num)
	if p.V.IsNull() {
		return Page{Number: num}, nil
	}
	glyphs := p.Content().Text
	llx, urx, ury, ok := mediaBox(p)
	if !ok {
		llx, urx, ury = glyphBounds(glyphs)
	}
	words, lines := AssembleWords(glyphs, llx, ury, n.gapFactor)
	for i := range words {
		words[i].Page = num
	}
	return Page{Number: num, Text: strings.Join(lines, "\n"), Words: words, Width: urx - llx}, nil
}

func mediaBox(p pdf.Page) (llx, urx, ury float64, ok bool) {
	box := p.V.Key("MediaBox")
	if box.IsNull() || box.Kind() != pdf.Array || box.Len() != 4 {
		return 0, 0, 0, false
	}
	var c [4]float64
	for i := 0; i < 4; i++ {
		v := box.Index(i)
		switch v.Kind() {
		case pdf.Integer:
			c[i] = float64(v.Int64())
		case pdf.Real:
			c[i] = v.Float64()
		default:
			return 0, 0, 0, false
		}
	}
	llx, urx = math.Min(c[0], c[2]), math.Max(c[0], c[2])
	lly := math.Min(c[1], c[3])
	ury = math.Max(c[1], c[3])
	return llx, urx, ury, urx > llx && ury > lly
}

func glyphBounds(glyphs []pdf.Text) (llx, urx, ury float64) {
	for _, g := range glyphs {
		urx = math.Max(urx, g.X+g.W)
		ury = math.Max(ury, g.Y+g.FontSize)
	}
	return 0, urx, ury
}

// AssembleWords turns positioned glyphs (PDF user space, origin bottom-left,
// page top at ury) into words with top-left based boxes, plus the page text one row per line.
// A new word starts at whitespace or when the gap to the previous glyph
// exceeds gapFactor × font size.
func AssembleWords(glyphs []pdf.Text, llx, ury float64, gapFactor float64) ([]entity.WordBox, []string) {
	type glyph struct {
		s           string
		left, right float64
		top, size   float64
	}
	gs := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		gs = append(gs, glyph{
			s:     g.S,
			left:  g.X - llx,
			right: g.X - llx + g.W,
			top:   ury - g.Y - g.FontSize,
			size:  g.FontSize,
		})
	}
	if len(gs) == 0 {
		return nil, nil
	}
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].top < gs[j].top })

	var rows [][]glyph
	for _, g := range gs {
		if k := len(rows) - 1; k >= 0 && math.Abs(rows[k][0].top-g.top) < glyphRowTolerance {
			rows[k] = append(rows[k], g)
			continue
		}
		rows = append(rows, []glyph{g})
	}

	var words []entity.WordBox
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].left < row[j].left })
		var rowWords []string
		var cur *entity.WordBox
		var prevRight float64
		flush := func() {
			if cur != nil && cur.Text != "" {
				words = append(words, *cur)
				rowWords = append(rowWords, cur.Text)
			}
			cur = nil
		}
		for _, g := range row {
			if strings.TrimFunc(g.s, unicode.IsSpace) == "" {
				flush()
				continue
			}
			if cur != nil && g.left-prevRight > gapFactor*math.Max(g.size, 1) {
				flush()
			}
			if cur == nil {
				cur = &entity.WordBox{Left: g.left, Top: g.top}
			}
			cur.Text += g.s
			cur.Right = g.right
			cur.Top = math.Min(cur.Top, g.top)
			prevRight = g.right
		}
		flush()
		if len(rowWords) > 0 {
			lines = append(lines, strings.Join(rowWords, " "))
		}
	}
	return words, lines
}
