// Package legal answers common legal questions from a keyword knowledge base.
package legal

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Akasxh/mcp-server-daily/internal/logging"
)

// Disclaimer is appended to every answer.
const Disclaimer = "This information is for general educational purposes and is not formal legal advice. " +
	"Consult a licensed attorney for advice about your specific situation."

// NoAnswer is the reply when no entry matches.
const NoAnswer = "I'm sorry, I don't have information on that topic."

//go:embed knowledge_base.yaml
var defaultKnowledgeBase []byte

// Entry is one knowledge base answer.
type Entry struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
}

// Assistant matches questions against the knowledge base. Questions with no
// match are appended to an optional log file.
type Assistant struct {
	entries       []Entry
	unansweredLog string
	logger        *slog.Logger
	mu            sync.Mutex
}

// ParseKnowledgeBase parses a YAML list of entries.
func ParseKnowledgeBase(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing knowledge base: %w", err)
	}
	for i := range entries {
		for j, kw := range entries[i].Keywords {
			entries[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	return entries, nil
}

// NewAssistant loads the embedded knowledge base. unansweredLog may be empty.
func NewAssistant(unansweredLog string, logger *slog.Logger) (*Assistant, error) {
	entries, err := ParseKnowledgeBase(defaultKnowledgeBase)
	if err != nil {
		return nil, err
	}
	return NewAssistantWithEntries(entries, unansweredLog, logger), nil
}

// NewAssistantWithEntries uses the given entries.
func NewAssistantWithEntries(entries []Entry, unansweredLog string, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		entries:       entries,
		unansweredLog: unansweredLog,
		logger:        logging.WithService(logger, "legal"),
	}
}

// Answer returns the first matching entry's response followed by the
// disclaimer.
func (a *Assistant) Answer(question string) string {
	query := strings.ToLower(question)
	for _, e := range a.entries {
		for _, kw := range e.Keywords {
			if kw != "" && strings.Contains(query, kw) {
				return e.Response + "\n\n" + Disclaimer
			}
		}
	}

	a.recordUnanswered(question)
	return NoAnswer + "\n\n" + Disclaimer
}

func (a *Assistant) recordUnanswered(question string) {
	a.logger.Info("Unanswered legal question", "length", len(question))
	if a.unansweredLog == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.unansweredLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		a.logger.Warn("Failed to open unanswered question log", logging.Err(err))
		return
	}
	defer f.Close()

	line := strings.ReplaceAll(strings.TrimSpace(question), "\n", " ")
	if _, err := f.WriteString(line + "\n"); err != nil {
		a.logger.Warn("Failed to record unanswered question", logging.Err(err))
	}
}
