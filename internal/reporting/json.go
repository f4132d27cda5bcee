package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lauolme/registro-app/internal/ir"
)

// WriteJSON writes the dictamen bundle (facts, trace, text, digest) to <outDir>/<name>.json.
func WriteJSON(name, outDir string, d *ir.Dictamen) (string, error) {
	path := filepath.Join(outDir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
