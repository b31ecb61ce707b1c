package dto

// MediaDeleteRequest asks the relay to destroy a CDN asset by its public id.
type MediaDeleteRequest struct {
	PublicID     string `json:"publicId" validate:"required,max=255"`
	ResourceType string `json:"resourceType" validate:"omitempty,oneof=video image raw"`
}

// MediaDeleteResponse reports the relay outcome. "ok" covers both a deleted
// asset and one that was already absent.
type MediaDeleteResponse struct {
	Result string `json:"result"`
}

// AssistantChatRequest is a prompt for the AI study assistant.
type AssistantChatRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=4000"`
}

// AssistantChatResponse carries the assistant's reply.
type AssistantChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}
