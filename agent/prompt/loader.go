package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

//go:embed template/*.txt template/stage/*.txt
var templates embed.FS

var (
	systemTmpl  = template.Must(template.ParseFS(templates, "template/system.txt"))
	summaryTmpl = template.Must(template.ParseFS(templates, "template/summary.txt"))
)

// SystemInput fills the system prompt. Empty Instructions and Protocol fall
// back to the embedded defaults.
type SystemInput struct {
	Owner        string
	Instructions string
	Protocol     string
	Tools        string
	Dialog       string
}

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Instructions string
	Protocol     string
	Nudge        string

	stages map[string]*template.Template
}

// LoadPromptSet returns the embedded prompts with surrounding whitespace trimmed.
func LoadPromptSet() PromptSet {
	set := PromptSet{
		Instructions: mustRead("template/instructions.txt"),
		Protocol:     mustRead("template/protocol.txt"),
		Nudge:        mustRead("template/nudge.txt"),
		stages:       map[string]*template.Template{},
	}

	entries, err := templates.ReadDir("template/stage")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		set.stages[name] = template.Must(template.New(name).Parse(mustRead("template/stage/" + e.Name())))
	}
	return set
}

func (p PromptSet) System(in SystemInput) (string, error) {
	if strings.TrimSpace(in.Owner) == "" {
		return "", fmt.Errorf("%w: owner is required", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(in.Instructions) == "" {
		in.Instructions = p.Instructions
	}
	if strings.TrimSpace(in.Protocol) == "" {
		in.Protocol = p.Protocol
	}
	return render(systemTmpl, in)
}

func (p PromptSet) Summary(owner string) (string, error) {
	if strings.TrimSpace(owner) == "" {
		return "", fmt.Errorf("%w: owner is required", contractx.ErrPromptMissing)
	}
	return render(summaryTmpl, struct{ Owner string }{owner})
}

// Stage returns the guidance for a conversation state, or "" when none exists.
func (p PromptSet) Stage(state, owner string) string {
	tmpl, ok := p.stages[state]
	if !ok {
		return ""
	}
	out, err := render(tmpl, struct{ Owner string }{owner})
	if err != nil {
		return ""
	}
	return out
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func mustRead(name string) string {
	raw, err := templates.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return strings.TrimSpace(string(raw))
}
