package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

// Strategy turns one page into records.
type Strategy interface {
	Name() string
	Extract(src *Source, pg *pagestore.Page) []entity.BinaryInput
}

// Dialect ties a device model to the pattern that recognizes its page title
// and the strategy that reads its inputs. Signature must capture the device
// tag in group 1.
type Dialect struct {
	Model     constants.DeviceModel
	Signature *regexp.Regexp
	Strategy  Strategy
}

// DefaultDialects returns the built-in registry in detection order.
func DefaultDialects(layout LayoutReconstructor, columnar ColumnarTextParser) []Dialect {
	codes := CodesStrategy{Layout: LayoutStrategy{R: layout}, Columnar: ColumnarStrategy{P: columnar}}
	return []Dialect{
		{constants.PCS931S, regexp.MustCompile(`(-F\d+)\s*\((PCS-931S)\)`), StaticStrategy{Table: PCS931STable}},
		{constants.SEL411L, regexp.MustCompile(`(-F\d+)\s*\((SEL-411L)\)`), StaticStrategy{Table: SEL411LTable}},
		{constants.PCS9705S, regexp.MustCompile(`(-C\d+)\s*\((PCS-9705S)\)`), ColumnarStrategy{P: columnar}},
		{constants.UDF506, regexp.MustCompile(`(-C\d+)\s*\((UDF-506)\)`), codes},
		{constants.Tesla4000, regexp.MustCompile(`(-[A-Z]\d+)\s*\((TESLA\s*4000)\)`), codes},
		{constants.PCS915SD, regexp.MustCompile(`(-[A-Z]\d+)\s*\((PCS-915SD)\)`), codes},
	}
}

// DialectDetector finds the first registered dialect whose signature occurs
// in the page text.
type DialectDetector struct {
	dialects []Dialect
}

func NewDialectDetector(dialects []Dialect) DialectDetector {
	return DialectDetector{dialects: dialects}
}

// Detect returns the device named by the signature and its function, read
// from "<tag> (<model>): <function>" up to the first hyphen or newline.
func (d DialectDetector) Detect(text string) (entity.DeviceInfo, Dialect, bool) {
	for _, dl := range d.dialects {
		m := dl.Signature.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		tag := m[1]
		return entity.DeviceInfo{Tag: tag, Model: string(dl.Model), Function: titleFunction(text, tag)}, dl, true
	}
	return entity.DeviceInfo{}, Dialect{}, false
}

var reTaggedFunction = regexp.MustCompile(`(-[A-Z]\d+\w*)\s*\([^)]+\):\s*([^-\n]+)`)

// titleFunction returns the text after the first "<tag> (...):" heading.
func titleFunction(text, tag string) string {
	for _, m := range reTaggedFunction.FindAllStringSubmatch(text, -1) {
		if m[1] == tag {
			return strings.TrimSpace(m[2])
		}
	}
	return ""
}

var (
	reTitleTag  = regexp.MustCompile(`(?:Entradas|Salidas)\s+Binarias\s+de\s+(-[A-Z]\d+\w*)`)
	reTitleFull = regexp.MustCompile(`(-[A-Z]\d+\w*)\s*\(([^)]+)\)\s*:\s*([^-\n]+?)\s*-\s*(?:Entradas|Salidas)\s+Binarias`)
)

// TitleDetector reads the device from a drawing title such as
// "Circuito de Entradas Binarias de -C01" or
// "-C01 (PCS-9705S): Controlador de Bahía - Entradas Binarias".
type TitleDetector struct {
	devices DeviceMap
}

func NewTitleDetector(devices DeviceMap) TitleDetector {
	return TitleDetector{devices: devices}
}

func (t TitleDetector) Detect(text string) (entity.DeviceInfo, bool) {
	if m := reTitleTag.FindStringSubmatch(text); m != nil {
		info := entity.DeviceInfo{Tag: m[1]}
		if known, ok := t.devices.Lookup(m[1]); ok {
			info.Model = known.Model
			info.Function = known.Function
		}
		return info, true
	}
	if m := reTitleFull.FindStringSubmatch(text); m != nil {
		return entity.DeviceInfo{
			Tag:      m[1],
			Model:    strings.TrimSpace(m[2]),
			Function: strings.TrimSpace(m[3]),
		}, true
	}
	return entity.DeviceInfo{}, false
}
