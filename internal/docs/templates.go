package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var templateFiles = map[string]string{
	"docx": "new_doc.docx",
	"xlsx": "new_excel.xlsx",
	"pptx": "new_ppt.pptx",
}

var mimeTypes = map[string]string{
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Templates serves the seed bytes for newly created documents.
type Templates struct {
	dir string
}

func NewTemplates(dir string) *Templates {
	return &Templates{dir: dir}
}

// MimeType maps a document extension to its MIME type.
func MimeType(ext string) string {
	if m, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}

// Supported reports whether new documents of this type can be created.
func Supported(ext string) bool {
	_, ok := templateFiles[strings.ToLower(ext)]
	return ok
}

// Bytes returns the template content for a document type.
func (t *Templates) Bytes(ext string) ([]byte, error) {
	name, ok := templateFiles[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("unsupported document type %q", ext)
	}
	data, err := os.ReadFile(filepath.Join(t.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	return data, nil
}
