package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

const gridText = `-C01 (PCS-9705S): Controlador de Bahía - Entradas Binarias
B03 01
Interruptor =D.Q01.QA1 (-52-1)   Secc. Línea =D.Q01.QB9
Posición Cerrado                 Posición Abierto
-X1
A B C D
BI_01 BI_02`

func TestColumnarTextParser_Parse(t *testing.T) {
	p := NewColumnarTextParser(15, 15)
	descs := p.Parse(gridText)

	assert.Equal(t, map[int]string{
		1: "Interruptor =D.Q01.QA1 (-52-1) Posición Cerrado",
		2: "Secc. Línea =D.Q01.QB9 Posición Abierto",
	}, descs)
}

func TestColumnarTextParser_NotEnoughSegments(t *testing.T) {
	p := NewColumnarTextParser(15, 15)
	descs := p.Parse("Interruptor =D.Q01.QA1 Reserva\nBI_01 BI_02 BI_03")
	assert.Empty(t, descs)
}

func TestColumnarTextParser_LookbackWindow(t *testing.T) {
	p := NewColumnarTextParser(1, 15)
	descs := p.Parse("Alarma por gas del equipo\nrelleno\nBI_05")
	assert.Empty(t, descs)

	p = NewColumnarTextParser(2, 15)
	descs = p.Parse("Alarma por gas del equipo\nrelleno\nBI_05")
	assert.Equal(t, "Alarma por gas del equipo", descs[5])
}

func TestColumnarTextParser_WindowStopsAtPreviousGroup(t *testing.T) {
	p := NewColumnarTextParser(15, 15)
	descs := p.Parse("Alarma por gas del equipo\nBI_01\nrelleno\nBI_03")
	assert.Equal(t, map[int]string{1: "Alarma por gas del equipo"}, descs)
}

func TestSplitSegments(t *testing.T) {
	segs := splitSegments("Disparo por sobrecorriente  Reserva  Cierre Manual")
	assert.Equal(t, []string{"Disparo por sobrecorriente", "Reserva", "Cierre Manual"}, segs)
	assert.Empty(t, splitSegments("texto sin inicios"))
}

func TestColumnarStrategy_Records(t *testing.T) {
	src := &Source{Detector: testDetector()}
	s := ColumnarStrategy{P: NewColumnarTextParser(15, 15)}
	recs := s.Extract(src, &pagestore.Page{Number: 7, Text: "BI_09\n" + gridText})

	require.Len(t, recs, 3)
	assert.Equal(t, "BI_09", recs[0].InputID)
	assert.Equal(t, "Binary Input 9", recs[0].FullDescription)

	assert.Equal(t, "-C01", recs[1].Device)
	assert.Equal(t, "PCS-9705S", recs[1].DeviceModel)
	assert.Equal(t, "Controlador de Bahía", recs[1].DeviceFunction)
	assert.Equal(t, "B03", recs[1].Board)
	assert.Equal(t, "BI_01", recs[1].InputID)
	assert.Equal(t, "Interruptor =D.Q01.QA1 (-52-1) Posición Cerrado", recs[1].FullDescription)
	assert.Equal(t, 7, recs[1].PageNumber)
}

func TestColumnarStrategy_DefaultDevice(t *testing.T) {
	src := &Source{Detector: testDetector()}
	s := ColumnarStrategy{P: NewColumnarTextParser(15, 15)}
	recs := s.Extract(src, &pagestore.Page{Number: 1, Text: "Reserva de entradas del equipo\nBI_04"})

	require.Len(t, recs, 1)
	assert.Equal(t, "-C01", recs[0].Device)
	assert.Equal(t, "PCS-9705S", recs[0].DeviceModel)
	assert.Equal(t, "Reserva de entradas del equipo", recs[0].FullDescription)
	assert.Empty(t, recs[0].Board)

	assert.Nil(t, s.Extract(src, &pagestore.Page{Number: 2, Text: "sin códigos"}))
}
