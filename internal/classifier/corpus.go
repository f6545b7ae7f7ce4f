package classifier

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed sample_corpus.jsonl
var sampleCorpus []byte

// Example is one labeled training sentence
type Example struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// SampleCorpus returns the small labeled corpus shipped with the binary
func SampleCorpus() []Example {
	examples, err := ReadCorpus(bytes.NewReader(sampleCorpus))
	if err != nil {
		panic(fmt.Sprintf("embedded corpus is invalid: %v", err))
	}
	return examples
}

// LoadCorpus reads a JSON-lines corpus file
func LoadCorpus(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return ReadCorpus(f)
}

// ReadCorpus parses one {"text","label"} object per line; blank lines are skipped
func ReadCorpus(r io.Reader) ([]Example, error) {
	var examples []Example
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var ex Example
		if err := json.Unmarshal([]byte(raw), &ex); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
		if strings.TrimSpace(ex.Text) == "" || strings.TrimSpace(ex.Label) == "" {
			return nil, fmt.Errorf("corpus line %d: text and label are required", line)
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return examples, nil
}
