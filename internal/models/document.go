// ABOUTME: Document and Page models for an uploaded whitepaper
// ABOUTME: Document identity is a short content hash of the raw uploaded bytes
package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// DocumentIDLength is the number of hex characters kept from the content hash
const DocumentIDLength = 16

// Page is one 1-indexed page of extracted plain text
type Page struct {
	Number int    `json:"page_number" yaml:"page_number"`
	Text   string `json:"text" yaml:"text"`
}

// Document is an uploaded file and its extracted pages
type Document struct {
	ID    string `json:"doc_id" yaml:"doc_id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Pages []Page `json:"pages" yaml:"pages"`
}

// DocumentID derives the deterministic identifier for raw file bytes:
// the first 16 lowercase hex characters of their SHA-256 digest.
func DocumentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:DocumentIDLength]
}
