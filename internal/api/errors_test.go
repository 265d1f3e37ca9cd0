package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server", &ServerError{Op: "login", Msg: "Incorrect email or password"}, "Incorrect email or password"},
		{"wrapped server", fmt.Errorf("ctx: %w", &ServerError{Op: "x", Msg: "nope"}), "nope"},
		{"status with msg", &StatusError{Op: "x", Code: 403, Msg: "Forbidden"}, "Forbidden"},
		{"transport", &TransportError{Op: "x", Err: errors.New("dial tcp")}, "Unable to reach the server. Please try again later."},
		{"other", errors.New("boom"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestEnvelopeRejected(t *testing.T) {
	yes, no := true, false
	assert.False(t, envelope{Status: &yes}.rejected(true))
	assert.True(t, envelope{Status: &no}.rejected(false))
	assert.True(t, envelope{}.rejected(true), "strict calls need an explicit status")
	assert.False(t, envelope{}.rejected(false))
}
