package entity

// PageContext is resolved once per source and copied into every record.
// Empty strings mean "not found".
type PageContext struct {
	Substation   string `json:"substation,omitempty"`
	Bay          string `json:"bay,omitempty"`
	VoltageLevel string `json:"voltage_level,omitempty"`
	Switchgear   string `json:"switchgear,omitempty"`
}

// WordBox is a positioned token. Coordinates are page points with the origin
// at the top-left corner; Top grows downwards.
type WordBox struct {
	Text  string
	Left  float64
	Right float64
	Top   float64
	Page  int
}

func (w WordBox) Center() float64 { return (w.Left + w.Right) / 2 }

// Column is the horizontal band [Left, Right) owned by one input code.
type Column struct {
	Number int
	Left   float64
	Right  float64
	Center float64
	Top    float64 // top of the code word itself
}

func (c Column) Contains(x, tolerance float64) bool {
	return x >= c.Left-tolerance && x <= c.Right+tolerance
}
