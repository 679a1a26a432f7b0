package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"newswatch/internal/config"
)

const (
	keywordPlaceholder = "{KEYWORD}"
	textPlaceholder    = "{TEXT_TO_ANALYZE}"
)

// PromptTemplate is the classification instruction set, assembled once at
// startup from the role file and the rule files. Missing or empty files are
// fatal before any work begins; there is no lazy re-read at call time.
type PromptTemplate struct {
	template string
}

// LoadPromptTemplate reads and joins the configured prompt files: the role
// instruction first, then each rule file, then the article-body slot.
func LoadPromptTemplate(cfg config.GeminiConfig) (*PromptTemplate, error) {
	role, err := readPromptFile(cfg.PromptDir, cfg.RoleFile)
	if err != nil {
		return nil, err
	}

	sections := []string{role}
	for _, name := range cfg.RuleFiles {
		rules, err := readPromptFile(cfg.PromptDir, name)
		if err != nil {
			return nil, err
		}
		sections = append(sections, rules)
	}

	template := strings.Join(sections, "\n") + "\n\n記事本文:\n" + textPlaceholder
	return &PromptTemplate{template: template}, nil
}

// Render substitutes the keyword and article text into the template.
func (p *PromptTemplate) Render(keyword, text string) string {
	prompt := strings.ReplaceAll(p.template, keywordPlaceholder, keyword)
	return strings.ReplaceAll(prompt, textPlaceholder, text)
}

func readPromptFile(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file %s: %w", path, err)
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return content, nil
}
