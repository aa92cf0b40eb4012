package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DialogLine is one turn of the sample call shown to the model.
type DialogLine struct {
	Speaker  string `yaml:"speaker"`
	Dialogue string `yaml:"dialogue"`
}

// LoadDialog reads a YAML list of dialog lines. A missing file is an empty
// dialog. Lines without text are dropped.
func LoadDialog(path string) ([]DialogLine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dialog %s: %w", path, err)
	}
	return ParseDialog(raw)
}

func ParseDialog(raw []byte) ([]DialogLine, error) {
	var lines []DialogLine
	if err := yaml.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("parse dialog: %w", err)
	}

	out := lines[:0]
	for _, l := range lines {
		l.Speaker = strings.TrimSpace(l.Speaker)
		l.Dialogue = strings.TrimSpace(l.Dialogue)
		if l.Dialogue == "" {
			continue
		}
		if l.Speaker == "" {
			l.Speaker = "unknown"
		}
		out = append(out, l)
	}
	return out, nil
}

func FormatDialog(lines []DialogLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(l.Speaker)
		b.WriteString(": ")
		b.WriteString(l.Dialogue)
	}
	return b.String()
}
