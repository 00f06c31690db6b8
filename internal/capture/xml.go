package capture

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mj1618/a11y-probe/internal/model"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// TreeFileName returns the dump file name for a capture id.
func TreeFileName(id string) string {
	return "a11y-" + id + ".xml"
}

// EncodeTree writes the XML dump of root to w.
func EncodeTree(w io.Writer, root *model.Node) error {
	if _, err := io.WriteString(w, xmlProlog); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if err := enc.Encode(BuildHierarchy(root)); err != nil {
		return err
	}
	return enc.Flush()
}

// XMLWriter writes tree dumps into Dir.
type XMLWriter struct {
	Dir string
}

// Write dumps root to <Dir>/a11y-<id>.xml, replacing any existing file, and
// returns the path.
func (w XMLWriter) Write(id string, root *model.Node) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, TreeFileName(id))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := EncodeTree(bw, root); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
