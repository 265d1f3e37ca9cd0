package models

import "time"

// EditWindow is how long after creation the sender may edit or delete a message
const EditWindow = 10 * time.Minute

// Message represents a direct message between two users
type Message struct {
	ID        string    `json:"_id"`
	Sender    string    `json:"from,omitempty"`
	Recipient string    `json:"to,omitempty"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	FromSelf  bool      `json:"fromSelf"`
}

// Normalize derives FromSelf from the sender id when the server supplied one.
// Messages without a sender keep whatever FromSelf the server sent.
func (m *Message) Normalize(self string) {
	if m.Sender != "" {
		m.FromSelf = m.Sender == self
	}
}

// CanModify reports whether the message may still be edited or deleted at now.
// The boundary is inclusive: a message exactly EditWindow old is still eligible.
func (m Message) CanModify(now time.Time) bool {
	return m.FromSelf && now.Sub(m.CreatedAt) <= EditWindow
}
