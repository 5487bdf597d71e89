package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed templates
var templateFS embed.FS

// Set holds the prompt templates of one agent in one language.
type Set struct {
	agent     string
	lang      string
	templates map[string]string
	questions []Question
}

// Question is one entry of the rigid-mode question list, asked in order.
type Question struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type fileSchema struct {
	Templates map[string]string `json:"templates"`
	Questions []Question        `json:"questions"`
}

// Load reads the embedded template set for an agent and language.
// A missing agent or language is a hard error, there is no fallback set.
func Load(agent, lang string) (*Set, error) {
	path := fmt.Sprintf("templates/%s/%s.json", agent, lang)

	data, err := templateFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no prompt templates for agent %q lang %q: %w", agent, lang, err)
	}

	var parsed fileSchema
	if err = json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates %s: %w", path, err)
	}

	return &Set{
		agent:     agent,
		lang:      lang,
		templates: parsed.Templates,
		questions: parsed.Questions,
	}, nil
}

// Format renders a named template, replacing every {key} placeholder.
func (s *Set) Format(name string, values map[string]any) (string, error) {
	template, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("no template %q for agent %q lang %q", name, s.agent, s.lang)
	}

	for key, value := range values {
		template = strings.ReplaceAll(template, "{"+key+"}", fmt.Sprint(value))
	}

	return template, nil
}

// Questions returns the ordered rigid-mode question list.
func (s *Set) Questions() []Question {
	return s.questions
}
