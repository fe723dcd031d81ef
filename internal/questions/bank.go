package questions

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultBankYAML []byte

// Question is a single trivia prompt together with its answer word.
type Question struct {
	Prompt string `yaml:"prompt" json:"prompt"`
	Answer string `yaml:"answer" json:"answer"`
}

// Bank maps word length to the questions available for that length.
// Immutable after load and safe for concurrent readers.
type Bank struct {
	byLength map[int][]Question
}

type bankFile struct {
	Words map[int][]Question `yaml:"words"`
}

// Load parses a YAML question set. Every answer is upper-cased and must
// have exactly the length it is keyed under.
func Load(data []byte) (*Bank, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question file: %w", err)
	}
	if len(file.Words) == 0 {
		return nil, fmt.Errorf("question file contains no words")
	}

	byLength := make(map[int][]Question, len(file.Words))
	for length, entries := range file.Words {
		if length < 1 {
			return nil, fmt.Errorf("invalid word length %d", length)
		}
		for i, q := range entries {
			answer := strings.ToUpper(strings.TrimSpace(q.Answer))
			if q.Prompt == "" {
				return nil, fmt.Errorf("length %d entry %d: empty prompt", length, i)
			}
			if len(answer) != length {
				return nil, fmt.Errorf("length %d entry %d: answer %q has length %d", length, i, answer, len(answer))
			}
			byLength[length] = append(byLength[length], Question{Prompt: q.Prompt, Answer: answer})
		}
	}

	return &Bank{byLength: byLength}, nil
}

// LoadFile reads and parses a YAML question set from disk.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}
	return Load(data)
}

// Default returns the question set embedded in the binary.
func Default() *Bank {
	bank, err := Load(defaultBankYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded question set is invalid: %v", err))
	}
	return bank
}

// Pick returns a uniformly random question of the given word length.
// The second return is false when the bank has no entries for that length.
func (b *Bank) Pick(length int) (Question, bool) {
	entries := b.byLength[length]
	if len(entries) == 0 {
		return Question{}, false
	}
	return entries[rand.Intn(len(entries))], true
}

// Count reports how many questions exist for a word length.
func (b *Bank) Count(length int) int {
	return len(b.byLength[length])
}
