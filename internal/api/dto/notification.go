package dto

type NotificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Button    string            `json:"button,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Unread    bool              `json:"unread"`
	CreatedAt string            `json:"created_at"`
}
