package plot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Output writes rendered figures into a directory.
type Output struct {
	dir string
}

// NewOutput creates dir if needed.
func NewOutput(dir string) (*Output, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Output{dir: dir}, nil
}

// Path returns where a figure file lives.
func (o *Output) Path(filename string) string {
	return filepath.Join(o.dir, filename)
}

// Save renders the figure and writes it to its Filename, returning the path.
// Nothing is written when rendering fails.
func (o *Output) Save(f Figure) (string, error) {
	var buf bytes.Buffer
	if err := Render(f, &buf); err != nil {
		return "", err
	}
	path := o.Path(f.Filename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// List returns the PNG files in the output directory, sorted by name.
func (o *Output) List() []string {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".png" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}
