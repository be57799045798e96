package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

var (
	substationRules = chain{
		{re: regexp.MustCompile(`(?i)SUBESTACI.N\s*:\s*(?:S\.E\.\s+)?([A-Z][A-Z\s]+)\s+\d+(?:/\d+)*\s*kV`)},
		{re: regexp.MustCompile(`(?i)SUBESTACI.N\s*:\s*(?:S\.E\.\s+)?([^\n]+)`)},
		{re: regexp.MustCompile(`(?i)(?:T.TULO|AMPLIACI.N)\s*[:\s]*(?:S\.E\.\s+)?([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ\s]+?)\s+\d+`)},
	}
	bayRules = chain{
		{re: regexp.MustCompile(`\b(L-[A-Z0-9-]+)\b`)},
		{re: regexp.MustCompile(`(?i)BAH.A\s+([A-ZÁÉÍÓÚÑ]+(?:\s+[A-ZÁÉÍÓÚÑ]+)*)`)},
		{re: regexp.MustCompile(`\b(TR-\d+)\b`)},
	}
	voltageRules = chain{
		// "220/60 kV" keeps the first value
		{re: regexp.MustCompile(`(?i)\b(\d+(?:/\d+)+)\s*kV`), value: func(m []string) string {
			return strings.SplitN(m[1], "/", 2)[0] + " kV"
		}},
		{re: regexp.MustCompile(`(?i)(?:L[IÍ]NEA|TABLERO)?\s*(\d+)\s*kV`), value: func(m []string) string {
			return m[1] + " kV"
		}},
	}
	switchgearRules = chain{
		{re: regexp.MustCompile(`=?(F\.Q\d+\.CP\d+)`)},
	}

	reVoltageSuffix = regexp.MustCompile(`(?i)\s+[\d./]+\s*kV\s*$`)
)

// ContextResolver finds substation, bay, voltage and switchgear on the first
// pages of a source. Each field is set by the first page that yields it and
// is never revisited.
type ContextResolver struct {
	pages int
}

func NewContextResolver(pages int) ContextResolver {
	if pages <= 0 {
		pages = 3
	}
	return ContextResolver{pages: pages}
}

// Resolve scans texts in order, at most r.pages of them.
func (r ContextResolver) Resolve(texts []string) entity.PageContext {
	var pc entity.PageContext
	fields := []struct {
		dst   *string
		rules chain
	}{
		{&pc.Substation, substationRules},
		{&pc.Bay, bayRules},
		{&pc.VoltageLevel, voltageRules},
		{&pc.Switchgear, switchgearRules},
	}
	for i, text := range texts {
		if i == r.pages {
			break
		}
		for _, f := range fields {
			if *f.dst != "" {
				continue
			}
			if v, ok := f.rules.first(text); ok {
				*f.dst = v
			}
		}
	}
	pc.Substation = normalizeSubstation(pc.Substation)
	return pc
}

// normalizeSubstation collapses whitespace and drops a captured "220 kV" tail.
func normalizeSubstation(s string) string {
	if s == "" {
		return s
	}
	s = strings.Join(strings.Fields(s), " ")
	return reVoltageSuffix.ReplaceAllString(s, "")
}
