package requests

// FileRefRequest names one previously uploaded file attached to a message.
type FileRefRequest struct {
	FileID   string `json:"file_id" binding:"required"`
	FileName string `json:"file_name"`
}

// SubmitMessageRequest is the body of POST /v1/chat. ConversationID empty
// starts a new conversation.
type SubmitMessageRequest struct {
	ConversationID   string           `json:"conversation_id"`
	Text             string           `json:"text" binding:"required"`
	Model            string           `json:"model"`
	ReasoningEffort  string           `json:"reasoning_effort"`
	WebSearchEnabled bool             `json:"web_search_enabled"`
	Timezone         string           `json:"timezone"`
	Files            []FileRefRequest `json:"files"`
}
