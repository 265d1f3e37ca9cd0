package ui

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"time"

	"snappy/client/internal/models"

	"github.com/rivo/tview"
)

// contactLabel renders a sidebar row with the presence dot
func contactLabel(c models.Contact, online bool) string {
	name := tview.Escape(c.DisplayName())
	if online {
		return fmt.Sprintf("[green]●[-] %s", name)
	}
	return fmt.Sprintf("[gray]○[-] %s", name)
}

// chatTitle is the border title of the open conversation
func chatTitle(c models.Contact, online bool) string {
	status := "○ offline"
	if online {
		status = "● online"
	}
	return fmt.Sprintf(" %s ─ %s ", c.DisplayName(), status)
}

// formatMessageLine renders one timeline row. Own messages that can still
// be edited carry a pencil mark.
func formatMessageLine(m models.Message, peer string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("[gray]")
	sb.WriteString(messageTime(m.CreatedAt, now))
	sb.WriteString("[-] ")
	if m.FromSelf {
		sb.WriteString("[yellow]you[-]")
	} else {
		sb.WriteString("[aqua]")
		sb.WriteString(tview.Escape(peer))
		sb.WriteString("[-]")
	}
	sb.WriteString(": ")
	sb.WriteString(tview.Escape(m.Text))
	if m.CanModify(now) {
		sb.WriteString(" [gray]✎[-]")
	}
	return sb.String()
}

func messageTime(at, now time.Time) string {
	if at.IsZero() {
		return "--:--"
	}
	at = at.In(now.Location())
	y1, m1, d1 := at.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return at.Format("15:04")
	}
	return at.Format("Jan 2 15:04")
}

func typingLine(peer string, typing bool) string {
	if !typing {
		return ""
	}
	return fmt.Sprintf("[gray]%s is typing...[-]", tview.Escape(peer))
}

func requestLabel(r models.FriendRequest) string {
	name := r.Username
	if name == "" {
		name = r.SenderID
	}
	if r.Email == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, r.Email)
}

// avatarColors are the choices offered on the avatar step
var avatarColors = []string{"#4e0eff", "#0e7cff", "#ff6b0e", "#0eaf5c"}

// avatarImage draws a round badge with the first letter of name and returns
// it base64 encoded, the form the backend stores.
func avatarImage(name, color string) string {
	initial := "?"
	if r := []rune(strings.TrimSpace(name)); len(r) > 0 {
		initial = strings.ToUpper(string(r[0]))
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">`+
		`<circle cx="32" cy="32" r="32" fill="%s"/>`+
		`<text x="32" y="42" font-size="28" font-family="sans-serif" text-anchor="middle" fill="#ffffff">%s</text>`+
		`</svg>`, html.EscapeString(color), html.EscapeString(initial))
	return base64.StdEncoding.EncodeToString([]byte(svg))
}
