package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

// Sheet is one workbook tab: the records of a single source.
type Sheet struct {
	Source string
	Inputs []entity.BinaryInput
}

const (
	headerFill = "366092"
	bandFill   = "D9E2F3"
	fontFamily = "Arial"
	noDataName = "No Data"
	maxNameLen = 31
)

var headers = []string{
	"Substation", "Bay", "Voltage", "Switchgear", "Device", "Model", "Function", "Board/Slot",
	"Input_ID", "Input_Number", "Description_Line1", "Description_Line2", "Full_Description", "Page",
}

var colWidths = []float64{20, 15, 10, 12, 8, 22, 30, 10, 8, 8, 45, 40, 65, 6}

var reSheetUnsafe = regexp.MustCompile(`[\\/*?:\[\]]`)

// Service writes extraction results as a multi-tab XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WorkbookXLSX returns the workbook bytes. Sources without records get no
// tab; when no source has records the workbook holds a single "No Data" tab.
func (s *Service) WorkbookXLSX(ctx context.Context, sheets []Sheet) ([]byte, error) {
	f, rows, err := s.build(ctx, sheets)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "sheets", len(f.GetSheetList()), "rows", rows)
	return buf.Bytes(), nil
}

// WriteFile saves the workbook at path.
func (s *Service) WriteFile(ctx context.Context, path string, sheets []Sheet) error {
	start := time.Now()
	f, rows, err := s.build(ctx, sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx save %s: %w", path, err)
	}
	s.logger.Info("export.xlsx.ok",
		"path", path,
		"sheets", len(f.GetSheetList()),
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

type styles struct {
	header int
	bands  [2]int
}

func (s *Service) build(ctx context.Context, sheets []Sheet) (*excelize.File, int, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	used := map[string]bool{}
	rows := 0
	for _, sh := range sheets {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return nil, 0, err
		}
		if len(sh.Inputs) == 0 {
			continue
		}
		name := SheetName(sh.Source, used)
		if err := addSheet(f, name, len(used) == 1); err != nil {
			_ = f.Close()
			return nil, 0, err
		}
		if err := writeSheet(f, name, SortInputs(sh.Inputs), st); err != nil {
			_ = f.Close()
			return nil, 0, fmt.Errorf("sheet %s: %w", name, err)
		}
		rows += len(sh.Inputs)
	}

	if len(used) == 0 {
		if err := addSheet(f, noDataName, true); err != nil {
			_ = f.Close()
			return nil, 0, err
		}
		_ = f.SetCellValue(noDataName, "A1", "No binary inputs found in the provided files.")
	}
	f.SetActiveSheet(0)
	return f, rows, nil
}

// addSheet renames the default sheet for the first tab and appends the rest.
func addSheet(f *excelize.File, name string, first bool) error {
	if first {
		return f.SetSheetName(f.GetSheetName(0), name)
	}
	_, err := f.NewSheet(name)
	return err
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	var st styles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: fontFamily, Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	if err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	for i, color := range []string{"FFFFFF", bandFill} {
		st.bands[i], err = f.NewStyle(&excelize.Style{
			Font:   &excelize.Font{Family: fontFamily},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			Border: border,
		})
		if err != nil {
			return st, fmt.Errorf("band style: %w", err)
		}
	}
	return st, nil
}

func writeSheet(f *excelize.File, sheet string, inputs []entity.BinaryInput, st styles) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.header); err != nil {
		return err
	}

	// band alternates whenever (device, board) changes
	band := 0
	var prev *entity.BinaryInput
	for i := range inputs {
		in := &inputs[i]
		if prev != nil && (prev.Device != in.Device || prev.Board != in.Board) {
			band = 1 - band
		}
		prev = in

		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{
			in.Substation, in.Bay, in.VoltageLevel, in.Switchgear,
			in.Device, in.DeviceModel, in.DeviceFunction, in.Board,
			in.InputID, in.InputNumber,
			in.DescriptionLine1, in.DescriptionLine2, in.FullDescription,
			in.PageNumber,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, row), st.bands[band]); err != nil {
			return err
		}
	}

	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(inputs)+1), nil)
}

// SortInputs returns a copy ordered by device, board, then input number.
func SortInputs(in []entity.BinaryInput) []entity.BinaryInput {
	out := append([]entity.BinaryInput(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Device != b.Device {
			return a.Device < b.Device
		}
		if a.Board != b.Board {
			return a.Board < b.Board
		}
		return a.InputNumber < b.InputNumber
	})
	return out
}

// SheetName derives a valid, unused tab name from a source path and records
// it in used. Names are compared case-insensitively, as Excel does.
func SheetName(source string, used map[string]bool) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	base = strings.TrimSpace(reSheetUnsafe.ReplaceAllString(base, "_"))
	if base == "" || base == "." {
		base = "Sheet"
	}
	base = clip(base, maxNameLen)

	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		name = clip(base, maxNameLen-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
