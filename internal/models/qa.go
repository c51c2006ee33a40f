// ABOUTME: QAItem records one answered question with the chunks it was grounded on
// ABOUTME: The QA log of a session is a slice of these, consumed by evaluation
package models

import "strings"

// RefusalText is the fixed answer returned whenever the document cannot support an answer
const RefusalText = "Information not found in the document."

// QAItem is one question, its final answer and the retrieved context
type QAItem struct {
	Question        string           `json:"question" yaml:"question"`
	Answer          string           `json:"answer" yaml:"answer"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks" yaml:"retrieved_chunks"`
}

// IsRefusal reports whether the answer is exactly the refusal literal (ignoring surrounding space)
func (q QAItem) IsRefusal() bool {
	return IsRefusal(q.Answer)
}

// IsRefusal reports whether text, trimmed, equals RefusalText
func IsRefusal(text string) bool {
	return strings.TrimSpace(text) == RefusalText
}
