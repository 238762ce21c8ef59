package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// File is one entry in a clone archive.
type File struct {
	Name string
	Data []byte
}

// Archive packs the files into a single zip under root, so the
// download unpacks into one directory instead of spraying files.
func Archive(root string, files []File) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		name := f.Name
		if root != "" {
			name = root + "/" + name
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
