package extract

import (
	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

// Deduplicator keeps one record per (device, board, number). A record with a
// real description replaces a placeholder; anything else keeps the first
// record seen. Output follows first-insertion order of keys.
type Deduplicator struct {
	order   []entity.Key
	records map[entity.Key]entity.BinaryInput
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{records: map[entity.Key]entity.BinaryInput{}}
}

func (d *Deduplicator) Add(recs ...entity.BinaryInput) {
	for _, r := range recs {
		k := r.Key()
		cur, ok := d.records[k]
		if !ok {
			d.order = append(d.order, k)
			d.records[k] = r
			continue
		}
		if constants.IsPlaceholder(cur.FullDescription) && !constants.IsPlaceholder(r.FullDescription) {
			d.records[k] = r
		}
	}
}

func (d *Deduplicator) Len() int { return len(d.order) }

func (d *Deduplicator) Records() []entity.BinaryInput {
	out := make([]entity.BinaryInput, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.records[k])
	}
	return out
}

func Deduplicate(recs []entity.BinaryInput) []entity.BinaryInput {
	d := NewDeduplicator()
	d.Add(recs...)
	return d.Records()
}
