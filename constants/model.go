package constants

import (
	"fmt"
	"strings"
)

type DeviceModel string

const (
	PCS931S   DeviceModel = "PCS-931S"
	SEL411L   DeviceModel = "SEL-411L"
	PCS9705S  DeviceModel = "PCS-9705S"
	UDF506    DeviceModel = "UDF-506"
	Tesla4000 DeviceModel = "TESLA 4000"
	PCS915SD  DeviceModel = "PCS-915SD"
)

var allModels = []DeviceModel{
	PCS931S,
	SEL411L,
	PCS9705S,
	UDF506,
	Tesla4000,
	PCS915SD,
}

// vendor descriptions, logged in the per-source summary
var modelNames = map[DeviceModel]string{
	PCS931S:   "NR Electric PCS-931S",
	SEL411L:   "Schweitzer SEL-411L",
	PCS9705S:  "NR Electric PCS-9705S Bay Controller",
	UDF506:    "NR Electric UDF-506",
	Tesla4000: "ERL TESLA 4000 Power System Recorder",
	PCS915SD:  "NR Electric PCS-915SD Bus Protection Relay",
}

// VendorName returns the long vendor name, or the model itself when unknown.
func VendorName(m DeviceModel) string {
	if n, ok := modelNames[m]; ok {
		return n
	}
	return string(m)
}

// CanonicalModel maps free text such as "pcs-931s" or "TESLA4000" to a known model.
func CanonicalModel(input string) (DeviceModel, bool) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(input), ""))
	if normalized == "" {
		return "", false
	}
	for _, m := range allModels {
		if normalized == strings.ReplaceAll(string(m), " ", "") {
			return m, true
		}
	}
	return "", false
}

// PlaceholderPrefix marks a description that could not be recovered from the page.
const PlaceholderPrefix = "Binary Input"

func Placeholder(number int) string {
	return fmt.Sprintf("%s %d", PlaceholderPrefix, number)
}

func IsPlaceholder(desc string) bool {
	return strings.HasPrefix(desc, PlaceholderPrefix)
}
