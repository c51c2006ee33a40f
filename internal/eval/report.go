// ABOUTME: Evaluation report types and their YAML or JSON export
// ABOUTME: Metrics serialize as a mapping that keeps check order
package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harper/docqa/internal/models"
)

// Metric is one named check result
type Metric struct {
	Name    string
	Passed  bool
	Message string
}

// Metrics is an ordered list of check results. It serializes as name -> message.
type Metrics []Metric

// Get returns the metric with the given name
func (m Metrics) Get(name string) (Metric, bool) {
	for _, metric := range m {
		if metric.Name == name {
			return metric, true
		}
	}
	return Metric{}, false
}

// MarshalJSON writes an object whose keys follow check order
func (m Metrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, metric := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(metric.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(metric.Message)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes a mapping whose keys follow check order
func (m Metrics) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, metric := range m {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: metric.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: metric.Message},
		)
	}
	return node, nil
}

// failures lists "name: message" for every failed metric
func (m Metrics) failures() []string {
	out := []string{}
	for _, metric := range m {
		if !metric.Passed {
			out = append(out, metric.Name+": "+metric.Message)
		}
	}
	return out
}

// SummaryReport is the evaluation of one summary
type SummaryReport struct {
	Metrics  Metrics      `json:"metrics" yaml:"metrics"`
	Passed   bool         `json:"passed" yaml:"passed"`
	Failures []string     `json:"failures" yaml:"failures"`
	Judge    *JudgeResult `json:"judge,omitempty" yaml:"judge,omitempty"`
}

// QAItemReport is the evaluation of one logged question
type QAItemReport struct {
	Question        string                  `json:"question" yaml:"question"`
	Answer          string                  `json:"answer" yaml:"answer"`
	Metrics         Metrics                 `json:"metrics" yaml:"metrics"`
	Passed          bool                    `json:"passed" yaml:"passed"`
	Failures        []string                `json:"failures" yaml:"failures"`
	RetrievedChunks []models.RetrievedChunk `json:"retrieved_chunks" yaml:"retrieved_chunks"`
	Judge           *JudgeResult            `json:"judge,omitempty" yaml:"judge,omitempty"`
}

// QAReport is the evaluation of a batch of logged questions
type QAReport struct {
	Items []QAItemReport `json:"items" yaml:"items"`
}

// PassedCount returns how many items passed every check
func (r QAReport) PassedCount() int {
	n := 0
	for _, item := range r.Items {
		if item.Passed {
			n++
		}
	}
	return n
}

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export writes v to w as JSON or YAML
func Export(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case FormatYAML, "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
	return nil
}

// ExportFile writes v to outputPath, picking the format from the extension (.json or .yaml/.yml)
func ExportFile(outputPath string, v any) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Export(file, v, format)
}
