package domain

// Conversation is a chat room participants subscribe to.
type Conversation struct {
	Base
	Title string
}

func NewConversation(title string) Conversation {
	return Conversation{Base: NewBase(), Title: title}
}

func (c Conversation) Meta() Base { return c.Base }

// WithTitle returns a renamed copy; the receiver stays unchanged so a
// rejected update leaves the caller holding the stored state.
func (c Conversation) WithTitle(title string) Conversation {
	c.Title = title
	return c
}
