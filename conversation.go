package agent

import "github.com/Protocol-Lattice/research-agent/pkg/models"

// Conversation is the ordered, append-only state threaded through a run.
// Entries are never reordered or removed.
type Conversation struct {
	entries []models.Message
}

// NewConversation seeds a conversation with the given entries.
func NewConversation(seed ...models.Message) *Conversation {
	c := &Conversation{}
	c.Append(seed...)
	return c
}

// Append adds entries to the end of the conversation.
func (c *Conversation) Append(msgs ...models.Message) {
	for _, m := range msgs {
		c.entries = append(c.entries, m.Clone())
	}
}

// Len returns the number of entries.
func (c *Conversation) Len() int { return len(c.entries) }

// Last returns the most recent entry, if any.
func (c *Conversation) Last() (models.Message, bool) {
	if len(c.entries) == 0 {
		return models.Message{}, false
	}
	return c.entries[len(c.entries)-1].Clone(), true
}

// Messages returns a copy of every entry in order.
func (c *Conversation) Messages() []models.Message {
	out := make([]models.Message, len(c.entries))
	for i, m := range c.entries {
		out[i] = m.Clone()
	}
	return out
}
