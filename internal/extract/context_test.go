package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextResolver_FirstRuleWins(t *testing.T) {
	r := NewContextResolver(3)
	pc := r.Resolve([]string{
		"PROYECTO\nSUBESTACIÓN: S.E. LAS PALMAS 220/60 kV\nBAHÍA LÍNEA NORTE L-2201\n=F.Q01.CP02",
	})
	assert.Equal(t, "LAS PALMAS", pc.Substation)
	assert.Equal(t, "L-2201", pc.Bay)
	assert.Equal(t, "220 kV", pc.VoltageLevel)
	assert.Equal(t, "F.Q01.CP02", pc.Switchgear)
}

func TestContextResolver_FallbackNotOverwritten(t *testing.T) {
	r := NewContextResolver(3)
	pc := r.Resolve([]string{
		"SUBESTACIÓN: Nueva Esperanza\nsin datos",
		"nada",
		"SUBESTACIÓN: S.E. OTRA 220 kV\nTR-3",
	})
	assert.Equal(t, "Nueva Esperanza", pc.Substation)
	assert.Equal(t, "TR-3", pc.Bay)
	assert.Equal(t, "220 kV", pc.VoltageLevel)
}

func TestContextResolver_OnlyLeadingPages(t *testing.T) {
	r := NewContextResolver(2)
	pc := r.Resolve([]string{"portada", "índice", "SUBESTACIÓN: S.E. TARDE 66 kV"})
	assert.Empty(t, pc.Substation)
	assert.Empty(t, pc.VoltageLevel)
}

func TestContextResolver_StripsVoltageTail(t *testing.T) {
	pc := NewContextResolver(3).Resolve([]string{"SUBESTACIÓN: Ñuñoa   138 kV"})
	assert.Equal(t, "Ñuñoa", pc.Substation)
	assert.Equal(t, "138 kV", pc.VoltageLevel)
}

func TestContextResolver_TitleRule(t *testing.T) {
	pc := NewContextResolver(3).Resolve([]string{"AMPLIACIÓN: S.E. SAN JUAN 500 kV"})
	assert.Equal(t, "SAN JUAN", pc.Substation)
	assert.Equal(t, "500 kV", pc.VoltageLevel)
}

func TestContextResolver_BayWords(t *testing.T) {
	pc := NewContextResolver(3).Resolve([]string{"BAHÍA TRANSFORMADOR"})
	assert.Equal(t, "TRANSFORMADOR", pc.Bay)
}
