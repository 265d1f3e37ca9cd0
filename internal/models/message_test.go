package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageCanModify(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	own := Message{ID: "m1", Text: "hi", CreatedAt: created, FromSelf: true}

	tests := []struct {
		name string
		msg  Message
		age  time.Duration
		want bool
	}{
		{"fresh", own, time.Second, true},
		{"just inside", own, EditWindow - time.Millisecond, true},
		{"exactly at window", own, EditWindow, true},
		{"past window", own, EditWindow + time.Millisecond, false},
		{"someone else's", Message{ID: "m2", CreatedAt: created}, time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.CanModify(created.Add(tt.age)))
		})
	}
}

func TestMessageNormalize(t *testing.T) {
	m := Message{Sender: "me", FromSelf: false}
	m.Normalize("me")
	assert.True(t, m.FromSelf)

	m = Message{Sender: "them", FromSelf: true}
	m.Normalize("me")
	assert.False(t, m.FromSelf)

	m = Message{FromSelf: true}
	m.Normalize("me")
	assert.True(t, m.FromSelf, "missing sender keeps the server flag")
}
