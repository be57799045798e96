package pagestore

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/binary-inputs/constants"
)

// rePageName recovers the page number from names like "page_12.txt" or "Page-3.txt".
var rePageName = regexp.MustCompile(`(?i)page[_-]?(\d+)`)

// LoadArchive reads a zip of pre-extracted page texts. Entries that are not
// .txt files, or whose name carries no page number, are ignored. The result
// has no word boxes.
func LoadArchive(src string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer func() {
		if cerr := zr.Close(); cerr != nil {
			logger.Warn("close zip", "path", src, "error", cerr)
		}
	}()

	store := NewStore(src, constants.SourceZIP, false)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".txt") {
			continue
		}
		m := rePageName.FindStringSubmatch(f.Name)
		if m == nil {
			logger.Debug("archive.entry.skip", "path", src, "entry", f.Name)
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		body, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		store.Put(Page{Number: n, Text: strings.ToValidUTF8(string(body), "")})
	}
	return store, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
