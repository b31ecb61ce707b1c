package ai

import "context"

// ChatInput carries one study assistant exchange: the student's question plus
// optional course context pulled from the page they asked on.
type ChatInput struct {
	Question      string
	CourseContext string
	History       []Turn
}

// Turn is a single prior exchange in the assistant conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the assistant's reply.
type ChatResult struct {
	Answer string                 `json:"answer"`
	Model  string                 `json:"model"`
	Raw    map[string]interface{} `json:"raw,omitempty"`
}

// Assistant describes an AI model capable of answering student questions.
type Assistant interface {
	Chat(ctx context.Context, input ChatInput) (ChatResult, error)
}
