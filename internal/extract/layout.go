package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

var (
	reCodeWord   = regexp.MustCompile(`^BI_(\d+)$`)
	reBankLetter = regexp.MustCompile(`^[A-H]$`)
	reSlotWord   = regexp.MustCompile(`^SLOT:(.+)`)
	reBankWord   = regexp.MustCompile(`^B\d{2}$`)

	reCircuitTitle = regexp.MustCompile(`Circuito de Entradas Binarias de\s+-[A-Z]\d+`)
	reSlotMarker   = regexp.MustCompile(`SLOT:\w+`)
)

// IsColumnarPage reports whether a page has the gridded layout the
// reconstructor understands: input codes, a circuit title, and either a
// bank letter header or a slot marker.
func IsColumnarPage(text string, hasWords bool) bool {
	if !hasWords || !strings.Contains(text, "BI_") {
		return false
	}
	if !reCircuitTitle.MatchString(text) {
		return false
	}
	return strings.Contains(text, "A B C D E F G H") || reSlotMarker.MatchString(text)
}

// Layout is what the reconstructor recovers from one page.
type Layout struct {
	Columns      []entity.Column
	Descriptions map[int][]string // fragments per input number, top-down
	Board        string
}

// LayoutReconstructor assigns description words to input-code columns using
// word geometry.
type LayoutReconstructor struct {
	tuning common.Tuning
}

func NewLayoutReconstructor(t common.Tuning) LayoutReconstructor {
	return LayoutReconstructor{tuning: t}
}

// Reconstruct returns nil when the page has no input codes.
func (l LayoutReconstructor) Reconstruct(words []entity.WordBox, width float64) *Layout {
	codes := codeWords(words)
	if len(codes) == 0 {
		return nil
	}
	cols := buildColumns(codes, width)
	lines := l.Lines(l.descriptionWords(words))
	return &Layout{
		Columns:      cols,
		Descriptions: l.assign(cols, lines),
		Board:        l.board(words, cols),
	}
}

type codeWord struct {
	number int
	word   entity.WordBox
}

// codeWords keeps the first occurrence of each code in reading order, then
// orders the result left to right.
func codeWords(words []entity.WordBox) []codeWord {
	seen := map[int]bool{}
	var out []codeWord
	for _, w := range words {
		m := reCodeWord.FindStringSubmatch(strings.TrimSpace(w.Text))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, codeWord{number: n, word: w})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].word.Left < out[j].word.Left })
	return out
}

// buildColumns splits [0, width) at the midpoints between neighbouring code
// centers. codes must be sorted by Left.
func buildColumns(codes []codeWord, width float64) []entity.Column {
	cols := make([]entity.Column, len(codes))
	for i, c := range codes {
		center := c.word.Center()
		left, right := 0.0, width
		if i > 0 {
			left = (codes[i-1].word.Center() + center) / 2
		}
		if i < len(codes)-1 {
			right = (center + codes[i+1].word.Center()) / 2
		}
		cols[i] = entity.Column{Number: c.number, Left: left, Right: right, Center: center, Top: c.word.Top}
	}
	return cols
}

func (l LayoutReconstructor) descriptionWords(words []entity.WordBox) []entity.WordBox {
	var out []entity.WordBox
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if w.Top >= l.tuning.DescriptionCutoff || utf8.RuneCountInString(text) <= 1 {
			continue
		}
		if reBankLetter.MatchString(text) || strings.Contains(text, "P.Met") {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Lines groups words into text lines. Rows are visited by rounded top; a row
// claims every unclaimed word within LineTolerance of it. Each line is sorted
// left to right.
func (l LayoutReconstructor) Lines(words []entity.WordBox) [][]entity.WordBox {
	levels := make([]float64, 0, len(words))
	seenLevel := map[float64]bool{}
	for _, w := range words {
		r := math.Round(w.Top)
		if !seenLevel[r] {
			seenLevel[r] = true
			levels = append(levels, r)
		}
	}
	sort.Float64s(levels)

	used := map[float64]bool{}
	var lines [][]entity.WordBox
	for _, level := range levels {
		if used[level] {
			continue
		}
		var line []entity.WordBox
		for _, w := range words {
			if math.Abs(w.Top-level) < l.tuning.LineTolerance && !used[math.Round(w.Top)] {
				line = append(line, w)
			}
		}
		if len(line) == 0 {
			continue
		}
		for _, w := range line {
			used[math.Round(w.Top)] = true
		}
		sort.SliceStable(line, func(i, j int) bool { return line[i].Left < line[j].Left })
		lines = append(lines, line)
	}
	return lines
}

// owner returns the index of the column that claims w, or -1. A word within
// reach of several widened columns goes to the one whose center is nearest.
func (l LayoutReconstructor) owner(cols []entity.Column, w entity.WordBox) int {
	best, bestDist := -1, math.Inf(1)
	center := w.Center()
	for i, c := range cols {
		if !c.Contains(center, l.tuning.ColumnTolerance) && !c.Contains(w.Left, l.tuning.ColumnTolerance) {
			continue
		}
		if d := math.Abs(center - c.Center); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (l LayoutReconstructor) assign(cols []entity.Column, lines [][]entity.WordBox) map[int][]string {
	out := map[int][]string{}
	for _, line := range lines {
		perCol := make([][]string, len(cols))
		for _, w := range line {
			if i := l.owner(cols, w); i >= 0 {
				perCol[i] = append(perCol[i], strings.TrimSpace(w.Text))
			}
		}
		for i, parts := range perCol {
			if frag := collapseSpaces(strings.Join(parts, " ")); frag != "" {
				out[cols[i].Number] = append(out[cols[i].Number], frag)
			}
		}
	}
	return out
}

// board prefers the lowest slot label that is not below the code row, and
// otherwise the first label found.
func (l LayoutReconstructor) board(words []entity.WordBox, cols []entity.Column) string {
	codeTop := cols[0].Top
	for _, c := range cols[1:] {
		codeTop = math.Min(codeTop, c.Top)
	}
	var candidates []entity.WordBox
	for _, w := range words {
		if reSlotWord.MatchString(w.Text) || reBankWord.MatchString(w.Text) {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	best := -1
	for i, w := range candidates {
		if w.Top > codeTop+l.tuning.SlotRowTolerance {
			continue
		}
		if best < 0 || w.Top > candidates[best].Top {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	return candidates[best].Text
}

// LayoutStrategy reads gridded pages from word geometry.
type LayoutStrategy struct {
	R LayoutReconstructor
}

func (LayoutStrategy) Name() string { return "layout" }

func (s LayoutStrategy) Extract(src *Source, pg *pagestore.Page) []entity.BinaryInput {
	if !pg.HasWords() {
		return nil
	}
	layout := s.R.Reconstruct(pg.Words, pg.Width)
	if layout == nil {
		return nil
	}
	device := src.titleDevice(pg.Text)
	out := make([]entity.BinaryInput, 0, len(layout.Columns))
	for _, col := range layout.Columns {
		rec := src.record(device, pg.Number, col.Number, fmt.Sprintf("BI_%02d", col.Number), constants.Placeholder(col.Number), layout.Board)
		if parts := layout.Descriptions[col.Number]; len(parts) > 0 {
			rec.DescriptionLine1 = parts[0]
			rec.DescriptionLine2 = strings.Join(parts[1:], " ")
			rec.FullDescription = strings.Join(parts, " ")
		}
		out = append(out, rec)
	}
	return out
}

// CodesStrategy handles pages that carry BI_ codes but no known title. It
// prefers geometry and falls back to text.
type CodesStrategy struct {
	Layout   LayoutStrategy
	Columnar ColumnarStrategy
}

func (CodesStrategy) Name() string { return "codes" }

func (s CodesStrategy) Extract(src *Source, pg *pagestore.Page) []entity.BinaryInput {
	if pg.HasWords() {
		if out := s.Layout.Extract(src, pg); len(out) > 0 {
			return out
		}
	}
	return s.Columnar.Extract(src, pg)
}
