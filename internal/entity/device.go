package entity

// DeviceInfo identifies the relay or controller a page describes.
type DeviceInfo struct {
	Tag      string // instance symbol, e.g. "-F01"
	Model    string
	Function string
}
