package notes

import "time"

// Target kinds a note can attach to.
const (
	TargetProject = "project"
	TargetTask    = "task"
)

// Note types.
const (
	TypeNote     = "note"
	TypeQuestion = "question"
)

// Note is an annotation on a project or a task, written by a participant.
type Note struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	TargetKind string    `json:"target_kind"`
	TargetID   int64     `json:"target_id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}
