// ABOUTME: ChatTurn is one message of the question/answer conversation
// ABOUTME: Roles are user or assistant; history is append-only
package models

// Role identifies who authored a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is one the answering engine understands
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatTurn is a single conversation message
type ChatTurn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}
