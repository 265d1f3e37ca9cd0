package timeline

import (
	"encoding/json"

	"snappy/client/internal/models"
	"snappy/client/internal/realtime"
)

// Bind registers the timeline's inbound handlers on sub and returns the
// unbinder. Message events change a ready timeline; those arriving while the
// history is loading are applied once it is in.
func (t *Timeline) Bind(sub realtime.Subscriber) func() {
	offs := []func(){
		sub.On(realtime.EventMessageReceived, t.handleReceived),
		sub.On(realtime.EventMessageEdited, t.handleEdited),
		sub.On(realtime.EventMessageDeleted, t.handleDeleted),
		sub.On(realtime.EventTyping, t.handleTyping),
		sub.On(realtime.EventStopTyping, t.handleStopTyping),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// inbound is one pushed change to the sequence
type inbound struct {
	event realtime.EventType
	msg   models.Message // message-received
	id    string         // message-edited, message-deleted
	text  string         // message-edited
}

// applyLocked applies in to the current sequence. Received messages are
// deduplicated by id, so replaying over a history that already has them is
// harmless.
func (t *Timeline) applyLocked(in inbound) bool {
	switch in.event {
	case realtime.EventMessageReceived:
		if t.indexLocked(in.msg.ID) >= 0 {
			return false
		}
		t.messages = append(t.messages, in.msg)
		return true
	case realtime.EventMessageEdited:
		return t.patchLocked(in.id, in.text)
	case realtime.EventMessageDeleted:
		return t.removeLocked(in.id)
	}
	return false
}

// pushLocked applies in when the timeline is ready and keeps it for replay
// while a history request is in flight
func (t *Timeline) pushLocked(in inbound) bool {
	if t.loads > 0 {
		t.backlog = append(t.backlog, in)
	}
	if t.state != StateReady {
		return false
	}
	return t.applyLocked(in)
}

func (t *Timeline) handleReceived(raw json.RawMessage) {
	var p realtime.ChatMessagePayload
	if !t.decode(realtime.EventMessageReceived, raw, &p) {
		return
	}

	t.mu.Lock()
	if p.From == "" || p.From != t.contact {
		t.mu.Unlock()
		return
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = t.now()
	}
	ok := t.pushLocked(inbound{
		event: realtime.EventMessageReceived,
		msg: models.Message{
			ID:        p.MessageID,
			Sender:    p.From,
			Recipient: t.self,
			Text:      p.Msg,
			CreatedAt: created,
		},
	})
	// a message ends the contact's typing burst
	if t.typing {
		t.clearTypingLocked()
		ok = true
	}
	t.mu.Unlock()
	if ok {
		t.changed()
	}
}

func (t *Timeline) handleEdited(raw json.RawMessage) {
	var p realtime.MessageEditedPayload
	if !t.decode(realtime.EventMessageEdited, raw, &p) {
		return
	}
	t.mu.Lock()
	ok := t.pushLocked(inbound{event: realtime.EventMessageEdited, id: p.MessageID, text: p.NewMessage})
	t.mu.Unlock()
	if ok {
		t.changed()
	}
}

func (t *Timeline) handleDeleted(raw json.RawMessage) {
	var p realtime.MessageDeletedPayload
	if !t.decode(realtime.EventMessageDeleted, raw, &p) {
		return
	}
	t.mu.Lock()
	ok := t.pushLocked(inbound{event: realtime.EventMessageDeleted, id: p.MessageID})
	t.mu.Unlock()
	if ok {
		t.changed()
	}
}

func (t *Timeline) handleTyping(raw json.RawMessage) {
	var p realtime.TypingPayload
	if t.decode(realtime.EventTyping, raw, &p) {
		t.setTyping(p.From)
	}
}

func (t *Timeline) handleStopTyping(raw json.RawMessage) {
	var p realtime.TypingPayload
	if t.decode(realtime.EventStopTyping, raw, &p) {
		t.stopTyping(p.From)
	}
}

func (t *Timeline) decode(event realtime.EventType, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		t.log.Warn().Err(err).Str("event", string(event)).Msg("[timeline] bad payload")
		return false
	}
	return true
}
