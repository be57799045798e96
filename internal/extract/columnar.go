package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

// starters open a description cell in running text. Each match starts a new
// segment that runs until the next match.
var starters = []string{
	`Interruptor\s*=`,
	`Secc\.\s+(?:Línea|PAT|Tierra|Bypass|Puesta|Barra)`,
	`Posici[oó]n\s+(?:Cerrado|Abierto|cerrado|abierto)`,
	`En\s+posición\s+(?:Activado|Desactivado)`,
	`Selector\s+(?:L/R|en\s+(?:remoto|local|desconectado))`,
	`Disparo\s+(?:por|Fase|Protec)`,
	`SF6\s+Bloqueo`,
	`Bloqueo\s+SF6`,
	`Falla\s+(?:MCB|Interna|Carga|canal|alimentación|de\s+equipo)`,
	`Reserva`,
	`Manivela\s+(?:Insertada|insertada)`,
	`Alarma`,
	`Señal(?:ización)?`,
	`Nivel\s+(?:de\s+)?(?:Aceite|Temperatura)?`,
	`Temperatura`,
	`Buchholz`,
	`Sobrepresión`,
	`Relé\s+(?:de\s+Bloqueo|F\d+|K\d+)`,
	`Protec\.`,
	`Bloqueo\s+(?:activado|por)`,
	`Cierre\s+Manual`,
	`Recepción\s+Teleprotección`,
	`Transmisión`,
	`OLTC`,
	`Ventilador`,
	`Cuba`,
	`Registrador\s+de\s+(?:Fallas|fallas)`,
	`Medidor\s+(?:de\s+Energía|M\d+)`,
	`Iluminación,`,
	`--?\d*TT-`,
	`Controlador\s+de\s+Bahía`,
	`Mando\s+Sincronizado`,
	`Alim\.\s+`,
	`Equipos\s+Secundarios`,
	`Regulador\s+de\s+Tensión`,
	`IN\d+-\d+`,
	`Función\s+\d+`,
	`Discordancia`,
	`Resorte\s+descargado`,
	`K86\s+Relé`,
	`50BF\s+Arranque`,
	`Otros\s+seccionadores`,
	`74\s+Falla`,
	`Alimentación\s+\d+`,
}

var (
	reStarter = regexp.MustCompile(`(?i)(?:` + strings.Join(starters, "|") + `)`)
	reBICode  = regexp.MustCompile(`BI_(\d+)`)
	reBoard   = regexp.MustCompile(`(B\d{2}|P\d{1,2})\s+\d{2}`)

	// rows that never carry descriptions: terminal references, terminal
	// blocks, bank labels and letter headers
	noiseRows = []*regexp.Regexp{
		regexp.MustCompile(`^[/\d.\-]+[A-H]?\s*F\d+`),
		regexp.MustCompile(`^-X\d+`),
		regexp.MustCompile(`^[BP]\d+\s+\d+`),
		regexp.MustCompile(`^[A-H]\s+[A-H]`),
	}
)

var columnarDefault = entity.DeviceInfo{
	Tag:      "-C01",
	Model:    string(constants.PCS9705S),
	Function: "Controlador de Bahía",
}

// ColumnarTextParser recovers per-code descriptions from plain text, where a
// grid of cells has been flattened into lines.
type ColumnarTextParser struct {
	Lookback int
	MinLen   int
}

func NewColumnarTextParser(lookback, minLen int) ColumnarTextParser {
	return ColumnarTextParser{Lookback: lookback, MinLen: minLen}
}

type codeGroup struct {
	line    int
	numbers []int
}

// Parse maps input numbers to descriptions. Codes sharing a line form a
// group; the lines above the group, top-down, supply at most two description
// rows. The window never reaches back past the previous group's code line.
// When a later group repeats a code its description wins.
func (c ColumnarTextParser) Parse(text string) map[int]string {
	lines := strings.Split(text, "\n")
	out := map[int]string{}
	floor := 0
	for _, g := range codeGroups(lines) {
		var rows [][]string
		start := max(floor, g.line-c.Lookback)
		floor = g.line + 1
		for j := start; j < g.line && len(rows) < 2; j++ {
			line := strings.TrimSpace(lines[j])
			if !c.candidate(line) {
				continue
			}
			if segs := splitSegments(line); len(segs) >= len(g.numbers) {
				rows = append(rows, segs[:len(g.numbers)])
			}
		}
		for i, n := range g.numbers {
			var parts []string
			for _, row := range rows {
				if i < len(row) {
					parts = append(parts, row[i])
				}
			}
			if len(parts) > 0 {
				out[n] = strings.Join(parts, " ")
			}
		}
	}
	return out
}

func (c ColumnarTextParser) candidate(line string) bool {
	if utf8.RuneCountInString(line) < c.MinLen {
		return false
	}
	for _, re := range noiseRows {
		if re.MatchString(line) {
			return false
		}
	}
	return true
}

func codeGroups(lines []string) []codeGroup {
	var groups []codeGroup
	for i, line := range lines {
		if nums := codeNumbers(line); len(nums) > 0 {
			groups = append(groups, codeGroup{line: i, numbers: nums})
		}
	}
	return groups
}

// codeNumbers returns the BI_ numbers of text in order of first appearance.
func codeNumbers(text string) []int {
	seen := map[int]bool{}
	var out []int
	for _, m := range reBICode.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func splitSegments(line string) []string {
	locs := reStarter.FindAllStringIndex(line, -1)
	segs := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(line)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segs = append(segs, strings.TrimSpace(line[loc[0]:end]))
	}
	return segs
}

// ColumnarStrategy reads pages from text alone.
type ColumnarStrategy struct {
	P ColumnarTextParser
}

func (ColumnarStrategy) Name() string { return "columnar" }

func (s ColumnarStrategy) Extract(src *Source, pg *pagestore.Page) []entity.BinaryInput {
	numbers := codeNumbers(pg.Text)
	if len(numbers) == 0 {
		return nil
	}
	device, _, ok := src.Detector.Detect(pg.Text)
	if !ok || device.Model == "" {
		device = columnarDefault
	}
	var board string
	if m := reBoard.FindStringSubmatch(pg.Text); m != nil {
		board = m[1]
	}
	descs := s.P.Parse(pg.Text)
	out := make([]entity.BinaryInput, 0, len(numbers))
	for _, n := range numbers {
		full, ok := descs[n]
		if !ok {
			full = constants.Placeholder(n)
		}
		out = append(out, src.record(device, pg.Number, n, fmt.Sprintf("BI_%02d", n), full, board))
	}
	return out
}
