package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"baliance.com/gooxml/document"
)

// GenerateWordFile writes plain content into a .docx at the given path.
func GenerateWordFile(content string, filepath string) error {
	doc := document.New()
	doc.AddParagraph().AddRun().AddText(content)
	return doc.SaveToFile(filepath)
}

// ExportDocument writes a titled document to dir, one paragraph per text
// block (blocks are separated by blank lines). Returns the written path.
func ExportDocument(dir, name, title, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	doc := document.New()

	heading := doc.AddParagraph().AddRun()
	heading.Properties().SetBold(true)
	heading.AddText(title)

	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		doc.AddParagraph().AddRun().AddText(block)
	}

	path := filepath.Join(dir, name+".docx")
	if err := doc.SaveToFile(path); err != nil {
		return "", fmt.Errorf("saving document: %w", err)
	}
	return path, nil
}
