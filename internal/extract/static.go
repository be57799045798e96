package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

const breakerQA1 = "Interruptor =D.Q01.QA1 (-52-1)"

// StaticTable describes a device whose input semantics never change between
// projects: only the input numbers are read from the page.
type StaticTable struct {
	Model    constants.DeviceModel
	Code     *regexp.Regexp // group 1 is the input number
	IDFormat string
	Default  entity.DeviceInfo
	Inputs   map[int]string
}

var PCS931STable = StaticTable{
	Model:    constants.PCS931S,
	Code:     regexp.MustCompile(`BI_(\d+)`),
	IDFormat: "BI_%02d",
	Default:  entity.DeviceInfo{Tag: "-F01", Model: string(constants.PCS931S), Function: "Protección Primaria PP/1"},
	Inputs: map[int]string{
		1:  breakerQA1 + ` - Posición Cerrado - Fase "R,S,T"`,
		2:  breakerQA1 + ` - Posición Abierto - Fase "R"`,
		3:  breakerQA1 + ` - Posición Abierto - Fase "S"`,
		4:  breakerQA1 + ` - Posición Abierto - Fase "T"`,
		5:  breakerQA1 + " - Selector L/R en Remoto",
		6:  breakerQA1 + " - Selector L/R en Local",
		7:  breakerQA1 + " - SF6 Bloqueo por Mínima Presión I y II",
		8:  breakerQA1 + " - Disparo por Discordancia de Polos etapa 1 y 2",
		9:  breakerQA1 + " - Falla Carga de Resortes, R,S,T",
		10: "Cierre Manual de Interruptor - Arranque SOTF",
	},
}

var SEL411LTable = StaticTable{
	Model:    constants.SEL411L,
	Code:     regexp.MustCompile(`IN(\d+)`),
	IDFormat: "IN%02d",
	Default:  entity.DeviceInfo{Tag: "-F02", Model: string(constants.SEL411L), Function: "Protección Secundaria PS/1"},
	Inputs: map[int]string{
		1:  "Disparo Protec. Primaria de Transformador - Arranque 50BF",
		2:  "Disparo Protec. Secundaria de Transformador - Arranque 50BF",
		8:  breakerQA1 + ` - Posición Cerrado - Fase "R,S,T"`,
		12: "Reserva",
	},
}

// Numbers returns the distinct input numbers found in text, ascending.
func (t StaticTable) Numbers(text string) []int {
	seen := map[int]bool{}
	var out []int
	for _, m := range t.Code.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Describe returns the fixed description, or the placeholder for unknown inputs.
func (t StaticTable) Describe(n int) string {
	if d, ok := t.Inputs[n]; ok {
		return d
	}
	return constants.Placeholder(n)
}

type StaticStrategy struct {
	Table StaticTable
}

func (s StaticStrategy) Name() string { return "static:" + string(s.Table.Model) }

func (s StaticStrategy) Extract(src *Source, pg *pagestore.Page) []entity.BinaryInput {
	numbers := s.Table.Numbers(pg.Text)
	if len(numbers) == 0 {
		return nil
	}
	device, _, ok := src.Detector.Detect(pg.Text)
	if !ok || device.Model == "" {
		device = s.Table.Default
	}
	out := make([]entity.BinaryInput, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, src.record(device, pg.Number, n, fmt.Sprintf(s.Table.IDFormat, n), s.Table.Describe(n), ""))
	}
	return out
}
