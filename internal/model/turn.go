package model

// ChatRequest is one inbound turn.
type ChatRequest struct {
	Message        string `json:"message" validate:"required,max=4000"`
	ConversationID *uint  `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty" validate:"max=254"`
}

// ChatResponse is the reply to a turn.
type ChatResponse struct {
	ConversationID uint              `json:"conversation_id"`
	Reply          string            `json:"reply"`
	Intent         string            `json:"intent"`
	Entities       map[string]string `json:"entities"`
	QuickReplies   []string          `json:"quick_replies"`
	Payload        map[string]any    `json:"payload"`
}

// LoginRequest carries credentials for the login check.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse is the identity returned by a successful login.
type LoginResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}
