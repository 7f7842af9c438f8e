package mailbox

type SendMessageRequest struct {
	// ToName is the recipient's account name. Ignored when scope is global.
	ToName  string `json:"to_name,omitempty" validate:"omitempty,max=100"`
	Subject string `json:"subject" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
	Type    string `json:"type,omitempty" validate:"omitempty,oneof=normal urgent positive negative"`
	Scope   string `json:"scope,omitempty" validate:"omitempty,oneof=local global"`
}

type UpdateMessageRequest struct {
	Subject *string `json:"subject,omitempty" validate:"omitempty,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,max=5000"`
	Type    *string `json:"type,omitempty" validate:"omitempty,oneof=normal urgent positive negative"`
}
