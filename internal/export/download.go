package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// utf8BOM is prepended so spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV is the non-browser counterpart of the original file download:
// it writes the serialized content to a file, prefixed with a UTF-8
// byte-order mark.
func WriteCSV(content, filename string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data := append(append([]byte{}, utf8BOM...), []byte(content)...)
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}
