package constants

import "strings"

// SourceKind is the detected container type of an input file.
type SourceKind string

const (
	SourcePDF SourceKind = "PDF"
	SourceZIP SourceKind = "ZIP"
)

// Magic prefixes used to sniff a source, regardless of its extension.
var (
	MagicPDF = []byte("%PDF-")
	MagicZIP = []byte("PK\x03\x04")
)

// AllowedExtensions holds the extensions picked up by directory discovery and watch mode.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
	"zip": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
