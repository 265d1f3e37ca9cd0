package ui

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"snappy/client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactLabel(t *testing.T) {
	bob := models.Contact{ID: "b", Username: "bob"}
	assert.Equal(t, "[green]●[-] bob", contactLabel(bob, true))
	assert.Equal(t, "[gray]○[-] bob", contactLabel(bob, false))

	noName := models.Contact{ID: "c", Email: "c@example.com"}
	assert.Contains(t, contactLabel(noName, false), "c@example.com")

	tagged := models.Contact{Username: "[red]x"}
	assert.NotContains(t, contactLabel(tagged, true), " [red]x")
}

func TestFormatMessageLine(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	own := models.Message{Text: "hi", CreatedAt: now.Add(-time.Minute), FromSelf: true}
	assert.Equal(t, "[gray]11:59[-] [yellow]you[-]: hi [gray]✎[-]", formatMessageLine(own, "bob", now))

	old := own
	old.CreatedAt = now.Add(-time.Hour)
	assert.Equal(t, "[gray]11:00[-] [yellow]you[-]: hi", formatMessageLine(old, "bob", now))

	theirs := models.Message{Text: "yo", CreatedAt: now.AddDate(0, 0, -1)}
	assert.Equal(t, "[gray]Apr 30 12:00[-] [aqua]bob[-]: yo", formatMessageLine(theirs, "bob", now))

	missing := models.Message{Text: "?"}
	assert.True(t, strings.HasPrefix(formatMessageLine(missing, "bob", now), "[gray]--:--[-]"))
}

func TestFormatMessageLineEscapesTags(t *testing.T) {
	now := time.Now()
	m := models.Message{Text: "[red]boom", CreatedAt: now}
	line := formatMessageLine(m, "bob", now)
	assert.Contains(t, line, "[red[]boom")
}

func TestTypingLine(t *testing.T) {
	assert.Empty(t, typingLine("bob", false))
	assert.Equal(t, "[gray]bob is typing...[-]", typingLine("bob", true))
}

func TestRequestLabel(t *testing.T) {
	assert.Equal(t, "alice <a@example.com>", requestLabel(models.FriendRequest{SenderID: "a", Username: "alice", Email: "a@example.com"}))
	assert.Equal(t, "a", requestLabel(models.FriendRequest{SenderID: "a"}))
}

func TestAvatarImage(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(avatarImage(" zed", "#0e7cff"))
	require.NoError(t, err)
	svg := string(raw)
	assert.Contains(t, svg, `fill="#0e7cff"`)
	assert.Contains(t, svg, ">Z</text>")

	raw, err = base64.StdEncoding.DecodeString(avatarImage("", "#fff"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), ">?</text>")
}

func TestToggledRole(t *testing.T) {
	assert.Equal(t, models.RoleUser, toggledRole(models.RoleAdmin))
	assert.Equal(t, models.RoleAdmin, toggledRole(models.RoleUser))
	assert.Equal(t, models.RoleAdmin, toggledRole(""))
}
