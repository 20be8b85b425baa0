package models

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type Message struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

type ChatSession struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	RoleID   string    `json:"roleId"`
	Messages []Message `json:"messages"`
}

const (
	DefaultChatTitle = "New Conversation"
	GreetingText     = "Let's begin. What would you like help with today?"
	// MaxAdoptedTitleLen bounds the first user message adopted as a title.
	MaxAdoptedTitleLen = 50
)

func (c ChatSession) MessageIndex(id string) int {
	for i, m := range c.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (c ChatSession) HasUserMessage() bool {
	for _, m := range c.Messages {
		if m.Sender == SenderUser {
			return true
		}
	}
	return false
}

func (c ChatSession) clone() ChatSession {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}
