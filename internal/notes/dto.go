package notes

type CreateNoteRequest struct {
	Content    string `json:"content" validate:"required,max=2000"`
	TargetKind string `json:"target_kind" validate:"required,oneof=project task"`
	TargetID   int64  `json:"target_id" validate:"required,gt=0"`
	Type       string `json:"type,omitempty" validate:"omitempty,oneof=note question"`
}

type ListNotesRequest struct {
	TargetKind string `json:"target_kind" validate:"required,oneof=project task"`
	TargetID   int64  `json:"target_id" validate:"required,gt=0"`
}
