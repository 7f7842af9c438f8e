package mailbox

import (
	"time"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// Message types.
const (
	TypeNormal   = "normal"
	TypeUrgent   = "urgent"
	TypePositive = "positive"
	TypeNegative = "negative"
)

// Message scopes. Global messages are visible to every account.
const (
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)

// Message is an internal mail item. FromName and ToName are display labels
// computed per viewer ("Me", "Global", or the account name).
type Message struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   *int64    `json:"to_user_id,omitempty"`
	FromName   string    `json:"from_name,omitempty"`
	ToName     string    `json:"to_name,omitempty"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Scope      string    `json:"scope"`
	IsRead     bool      `json:"is_read"`
	IsStarred  bool      `json:"is_starred"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ref extracts the ownership columns the authz package decides over.
func (m *Message) Ref() authz.MessageRef {
	return authz.MessageRef{
		ID:         m.ID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		Global:     m.Scope == ScopeGlobal,
	}
}
