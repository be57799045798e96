package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

var reINCode = regexp.MustCompile(`IN\d+`)

// Source is the per-document state shared by every page strategy. It is
// read-only once built.
type Source struct {
	Store    *pagestore.Store
	Context  entity.PageContext
	Devices  DeviceMap
	Titles   TitleDetector
	Detector DialectDetector
}

func (s *Source) record(device entity.DeviceInfo, page, number int, id, full, board string) entity.BinaryInput {
	line1, line2, _ := strings.Cut(full, " - ")
	return entity.BinaryInput{
		Device:           device.Tag,
		DeviceModel:      device.Model,
		DeviceFunction:   device.Function,
		InputID:          id,
		InputNumber:      number,
		DescriptionLine1: line1,
		DescriptionLine2: line2,
		FullDescription:  full,
		PageNumber:       page,
		Board:            board,
		PageContext:      s.Context,
	}
}

// titleDevice tries the title detector, then the dialect signatures. A tag
// without a model is completed from the device map.
func (s *Source) titleDevice(text string) entity.DeviceInfo {
	device, ok := s.Titles.Detect(text)
	if !ok {
		device, _, _ = s.Detector.Detect(text)
	}
	if device.Tag != "" && device.Model == "" {
		if known, found := s.Devices.Lookup(device.Tag); found {
			device.Model = known.Model
			device.Function = known.Function
		}
	}
	return device
}

// Result is everything extracted from one source.
type Result struct {
	Source  string
	Context entity.PageContext
	Devices DeviceMap
	Inputs  []entity.BinaryInput
	Pages   int // pages that produced at least one record
	Skipped int // relevant pages no strategy could read
}

// Extractor runs the page strategies over a loaded source.
type Extractor struct {
	tuning   common.Tuning
	logger   *slog.Logger
	layout   LayoutStrategy
	codes    CodesStrategy
	sel      StaticStrategy
	dialects []Dialect
}

func NewExtractor(tuning common.Tuning, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	layout := NewLayoutReconstructor(tuning)
	columnar := NewColumnarTextParser(tuning.LookbackLines, tuning.MinCandidateLen)
	return &Extractor{
		tuning:   tuning,
		logger:   logger,
		layout:   LayoutStrategy{R: layout},
		codes:    CodesStrategy{Layout: LayoutStrategy{R: layout}, Columnar: ColumnarStrategy{P: columnar}},
		sel:      StaticStrategy{Table: SEL411LTable},
		dialects: DefaultDialects(layout, columnar),
	}
}

// Register appends a dialect after the built-in ones.
func (x *Extractor) Register(d Dialect) {
	x.dialects = append(x.dialects, d)
}

// Prepare resolves the context and the device map of a source. The context
// comes from page numbers 1..MetadataPages only; missing pages are not
// replaced by later ones.
func (x *Extractor) Prepare(store *pagestore.Store) *Source {
	var texts, head []string
	for _, n := range store.Numbers() {
		text := store.Text(n)
		texts = append(texts, text)
		if n <= x.tuning.MetadataPages {
			head = append(head, text)
		}
	}
	devices := BuildDeviceMap(texts)
	return &Source{
		Store:    store,
		Context:  NewContextResolver(x.tuning.MetadataPages).Resolve(head),
		Devices:  devices,
		Titles:   NewTitleDetector(devices),
		Detector: NewDialectDetector(x.dialects),
	}
}

// Extract reads every relevant page of store. Gridded pages with geometry
// are read first; the remaining pages are dispatched by dialect. A page that
// fails is logged and skipped.
func (x *Extractor) Extract(ctx context.Context, store *pagestore.Store) (*Result, error) {
	src := x.Prepare(store)
	res := &Result{Source: store.Source, Context: src.Context, Devices: src.Devices}
	dedup := NewDeduplicator()
	done := map[int]bool{}

	numbers := store.Numbers()
	if store.Layout {
		for _, n := range numbers {
			pg, _ := store.Page(n)
			if !RelevantPage(pg.Text) || !IsColumnarPage(pg.Text, pg.HasWords()) {
				continue
			}
			if recs := x.run(ctx, src, pg, x.layout); len(recs) > 0 {
				dedup.Add(recs...)
				done[n] = true
				res.Pages++
			}
		}
	}

	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pg, _ := store.Page(n)
		if done[n] || !RelevantPage(pg.Text) {
			continue
		}
		strategy := x.strategyFor(src, pg.Text)
		if strategy == nil {
			res.Skipped++
			x.logger.Debug("extract.page.unrecognized", "source", store.Source, "page", n)
			continue
		}
		if recs := x.run(ctx, src, pg, strategy); len(recs) > 0 {
			dedup.Add(recs...)
			res.Pages++
		}
	}

	res.Inputs = dedup.Records()
	x.logger.Info("extract.ok",
		"source", store.Source,
		"pages", store.Len(),
		"pages_with_inputs", res.Pages,
		"inputs", len(res.Inputs),
		"devices", len(res.Devices),
	)
	return res, nil
}

func (x *Extractor) strategyFor(src *Source, text string) Strategy {
	if _, d, ok := src.Detector.Detect(text); ok {
		return d.Strategy
	}
	if strings.Contains(text, "BI_") {
		return x.codes
	}
	if reINCode.MatchString(text) {
		return x.sel
	}
	return nil
}

// run isolates a single page so one malformed page cannot abort the source.
func (x *Extractor) run(ctx context.Context, src *Source, pg *pagestore.Page, s Strategy) (recs []entity.BinaryInput) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Warn("extract.page.failed",
				"source", src.Store.Source,
				"page", pg.Number,
				"strategy", s.Name(),
				"err", fmt.Sprint(r),
				"run_id", common.RunIDFromContext(ctx),
			)
			recs = nil
		}
	}()
	recs = s.Extract(src, pg)
	x.logger.Debug("extract.page", "source", src.Store.Source, "page", pg.Number, "strategy", s.Name(), "inputs", len(recs))
	return recs
}

// RelevantPage reports whether a page describes binary inputs. Index pages
// and overview sheets are excluded even when they mention them.
func RelevantPage(text string) bool {
	if !strings.Contains(text, "Entradas Binarias") && !strings.Contains(text, "Binary Input") {
		return false
	}
	if strings.Contains(firstRunes(text, 500), "Índice") {
		return false
	}
	return !strings.Contains(text, "Lectura de componentes") && !strings.Contains(text, "Esquema general")
}
