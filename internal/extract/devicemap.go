package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

var (
	reBOMModel   = regexp.MustCompile(`(?i)(PCS-[\w-]+|TESLA\s*\d[\w_]*|SEL-[\w-]+|UDF-[\w-]+)`)
	reBOMSymbols = regexp.MustCompile(`(-[A-Z]\d+\w*(?:;-[A-Z]\d+\w*)*)`)
)

// functionKeywords is ordered; the first keyword found in the description wins.
var functionKeywords = []struct {
	keyword  string
	function string
}{
	{"UNIDAD DE CONTROL", "Unidad de Control de Bahía"},
	{"CONTROLADOR", "Controlador de Bahía"},
	{"RELÉ DIFERENCIAL", "Relé Diferencial de Línea"},
	{"RELÉ DE BARRA", "Relé de Barra"},
	{"GRABADOR", "Grabador de Fallas"},
	{"REGISTRADOR", "Registrador de Fallas"},
	{"MEDIDOR", "Medidor Multifunción"},
	{"Módulo de Corrientes", "Grabador de Fallas (Corrientes)"},
	{"Módulo de voltajes", "Grabador de Fallas (Voltajes)"},
}

// DeviceMap maps a device tag such as "-F01" to its bill-of-materials entry.
type DeviceMap map[string]entity.DeviceInfo

func (m DeviceMap) Lookup(tag string) (entity.DeviceInfo, bool) {
	info, ok := m[tag]
	return info, ok
}

// BuildDeviceMap reads the bill-of-materials pages among texts. Pages that
// list accessories are ignored, and later rows overwrite earlier ones.
func BuildDeviceMap(texts []string) DeviceMap {
	devices := DeviceMap{}
	for _, text := range texts {
		if !strings.Contains(text, "Lista de Materiales") || strings.Contains(text, "Accesorios") {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			parseBOMLine(line, devices)
		}
	}
	return devices
}

func parseBOMLine(line string, devices DeviceMap) {
	if strings.Contains(line, "SÍMBOLO") || strings.Contains(line, "DESCRIPCIÓN") {
		return
	}
	mm := reBOMModel.FindStringIndex(line)
	if mm == nil {
		return
	}
	sm := reBOMSymbols.FindStringIndex(line)
	if sm == nil {
		return
	}
	model := strings.TrimSpace(line[mm[0]:mm[1]])
	if canonical, ok := constants.CanonicalModel(model); ok {
		model = string(canonical)
	}

	var between string
	if sm[1] <= mm[0] {
		between = line[sm[1]:mm[0]]
	}
	function := deviceFunction(between)

	for _, sym := range strings.Split(line[sm[0]:sm[1]], ";") {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		devices[sym] = entity.DeviceInfo{Tag: sym, Model: model, Function: function}
	}
}

// deviceFunction returns the canonical phrase for a known role, otherwise
// the description itself.
func deviceFunction(description string) string {
	description = collapseSpaces(description)
	if description == "" {
		return ""
	}
	for _, kw := range functionKeywords {
		if containsFold(description, kw.keyword) {
			return kw.function
		}
	}
	return description
}
