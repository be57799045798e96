package entity

// BinaryInput is one binary input recovered from a drawing page.
type BinaryInput struct {
	Device           string `json:"device"`
	DeviceModel      string `json:"device_model"`
	DeviceFunction   string `json:"device_function"`
	InputID          string `json:"input_id"`
	InputNumber      int    `json:"input_number"`
	DescriptionLine1 string `json:"description_line1"`
	DescriptionLine2 string `json:"description_line2"`
	FullDescription  string `json:"full_description"`
	PageNumber       int    `json:"page_number"`
	Board            string `json:"board,omitempty"`

	PageContext
}

// Key identifies the same logical input across pages.
type Key struct {
	Device string
	Board  string
	Number int
}

func (b BinaryInput) Key() Key {
	return Key{Device: b.Device, Board: b.Board, Number: b.InputNumber}
}
