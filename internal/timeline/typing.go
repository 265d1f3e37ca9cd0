package timeline

import (
	"time"

	"snappy/client/internal/realtime"
)

// Typing reports whether the active contact is typing
func (t *Timeline) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

// Keystroke tells the active contact we are typing. Every keystroke emits
// typing, which keeps the contact's indicator alive, and pushes the
// stop-typing deadline back.
func (t *Timeline) Keystroke() error {
	t.mu.Lock()
	contact := t.contact
	if contact == "" {
		t.mu.Unlock()
		return ErrNoConversation
	}
	if prev := t.outTo; prev != "" && prev != contact {
		// still marked as typing to someone else
		t.mu.Unlock()
		t.emitStopTyping(prev)
		t.mu.Lock()
	}
	t.outSeq++
	seq := t.outSeq
	t.outTo = contact
	if t.outTimer != nil {
		t.outTimer.Stop()
	}
	t.outTimer = time.AfterFunc(t.typingTimeout, func() { t.expireOutbound(seq) })
	t.mu.Unlock()

	return t.emit.Emit(realtime.EventTyping, realtime.TypingPayload{To: contact, From: t.self})
}

// StopTyping cancels a pending outbound typing signal and emits stop-typing
func (t *Timeline) StopTyping() {
	if to := t.cancelOutbound(); to != "" {
		t.emitStopTyping(to)
	}
}

// cancelOutbound disarms the stop-typing timer and returns who we were
// typing to
func (t *Timeline) cancelOutbound() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	to := t.outTo
	t.outSeq++
	t.outTo = ""
	if t.outTimer != nil {
		t.outTimer.Stop()
		t.outTimer = nil
	}
	return to
}

func (t *Timeline) expireOutbound(seq uint64) {
	t.mu.Lock()
	if seq != t.outSeq {
		t.mu.Unlock()
		return
	}
	to := t.outTo
	t.outTo = ""
	t.outTimer = nil
	t.mu.Unlock()

	if to != "" {
		t.emitStopTyping(to)
	}
}

func (t *Timeline) emitStopTyping(to string) {
	if err := t.emit.Emit(realtime.EventStopTyping, realtime.TypingPayload{To: to, From: t.self}); err != nil {
		t.log.Debug().Err(err).Msg("[timeline] failed to emit stop-typing")
	}
}

func (t *Timeline) setTyping(from string) {
	t.mu.Lock()
	if from == "" || from != t.contact {
		t.mu.Unlock()
		return
	}
	was := t.typing
	t.typing = true
	t.typingSeq++
	seq := t.typingSeq
	if t.typingTimer != nil {
		t.typingTimer.Stop()
	}
	t.typingTimer = time.AfterFunc(t.typingTimeout, func() { t.expireTyping(seq) })
	t.mu.Unlock()

	if !was {
		t.changed()
	}
}

func (t *Timeline) stopTyping(from string) {
	t.mu.Lock()
	if from != t.contact || !t.typing {
		t.mu.Unlock()
		return
	}
	t.clearTypingLocked()
	t.mu.Unlock()
	t.changed()
}

func (t *Timeline) expireTyping(seq uint64) {
	t.mu.Lock()
	if seq != t.typingSeq || !t.typing {
		t.mu.Unlock()
		return
	}
	t.typing = false
	t.typingTimer = nil
	t.mu.Unlock()
	t.changed()
}

func (t *Timeline) clearTypingLocked() {
	t.typing = false
	t.typingSeq++
	if t.typingTimer != nil {
		t.typingTimer.Stop()
		t.typingTimer = nil
	}
}
