package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lauolme/registro-app/internal/ir"
)

// WriteMarkdown writes the rendered text byte-for-byte to <outDir>/<name>.md and
// a sha256sum-style sidecar next to it.
func WriteMarkdown(name, outDir string, d *ir.Dictamen) (string, error) {
	path := filepath.Join(outDir, name+".md")
	if err := os.WriteFile(path, []byte(d.Text), 0o644); err != nil {
		return "", err
	}
	sum := fmt.Sprintf("%s  %s\n", d.Digest, filepath.Base(path))
	if err := os.WriteFile(path+".sha256", []byte(sum), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
