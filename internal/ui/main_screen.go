package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snappy/client/internal/chat"
	"snappy/client/internal/models"
	"snappy/client/internal/timeline"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const chatKeys = " Tab:Focus | F2:Add friend | F3:Requests | F5:Refresh | F9:Logout | F10:Quit "

func (a *App) showChat() {
	ctrl, err := chat.New(a.deps.Store, a.deps.API, a.deps.Auth, a.deps.Dial,
		chat.WithLogger(a.deps.Logger),
		chat.WithTypingTimeout(a.deps.TypingTimeout),
		chat.WithNotifier(a.notify),
	)
	if err != nil {
		a.log.Warn().Err(err).Msg("[ui] chat needs a session")
		a.showLogin()
		return
	}
	a.ctrl = ctrl
	ctrl.OnChange(a.redraw)

	a.pages.AddPage(pageChat, a.createChatPage(), true, true)
	a.setStatus("Connecting...", false)
	a.render()
	a.app.SetFocus(a.sidebar)

	a.do("connect", func(ctx context.Context) error {
		if err := ctrl.Start(ctx); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() { a.setStatus(chatKeys, false) })
		return nil
	})
}

func (a *App) createChatPage() tview.Primitive {
	a.sidebar = tview.NewList()
	styleBox(a.sidebar.Box, " Friends ")
	a.sidebar.SetMainTextColor(ColorFg)
	a.sidebar.SetSelectedBackgroundColor(ColorBorder)
	a.sidebar.SetHighlightFullLine(true)
	a.sidebar.ShowSecondaryText(false)
	a.sidebar.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(a.friends) {
			a.openConversation(a.friends[index])
		}
	})

	a.timeline = tview.NewList()
	styleBox(a.timeline.Box, " No conversation ")
	a.timeline.SetMainTextColor(ColorFg)
	a.timeline.SetSelectedBackgroundColor(ColorField)
	a.timeline.ShowSecondaryText(false)
	a.timeline.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(a.shown) {
			a.showMessageDialog(a.shown[index])
		}
	})

	a.typing = tview.NewTextView()
	a.typing.SetDynamicColors(true)
	a.typing.SetBackgroundColor(ColorPanel)

	a.input = tview.NewInputField()
	a.input.SetLabel("> ")
	a.input.SetFieldWidth(0)
	a.input.SetBackgroundColor(ColorPanel)
	a.input.SetFieldBackgroundColor(ColorField)
	a.input.SetFieldTextColor(ColorFg)
	a.input.SetLabelColor(ColorHighlight)
	a.input.SetBorder(true)
	a.input.SetBorderColor(ColorBorder)
	a.input.SetTitle(" Message ")
	a.input.SetChangedFunc(func(text string) {
		if text != "" && a.ctrl != nil {
			a.ctrl.Keystroke()
		}
	})
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := a.input.GetText()
		if strings.TrimSpace(text) == "" {
			return
		}
		a.input.SetText("")
		ctrl := a.ctrl
		a.do("send", func(ctx context.Context) error { return ctrl.Send(ctx, text) })
	})

	a.statusBar = tview.NewTextView()
	a.statusBar.SetDynamicColors(true)
	a.statusBar.SetBackgroundColor(ColorStatus)
	a.statusBar.SetTextColor(ColorTitle)
	a.statusBar.SetTextAlign(tview.AlignCenter)

	detail := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.timeline, 0, 1, false).
		AddItem(a.typing, 1, 0, false).
		AddItem(a.input, 3, 0, false)

	body := tview.NewFlex().
		AddItem(a.sidebar, 30, 0, true).
		AddItem(detail, 0, 1, false)

	page := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	page.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			a.cycleFocus()
			return nil
		case tcell.KeyF2:
			a.showAddFriendDialog()
			return nil
		case tcell.KeyF3:
			a.showRequestsDialog()
			return nil
		case tcell.KeyF5:
			a.refresh()
			return nil
		case tcell.KeyF9:
			a.logout()
			return nil
		case tcell.KeyF10:
			a.quit()
			return nil
		}
		return event
	})
	return page
}

func (a *App) cycleFocus() {
	switch a.app.GetFocus() {
	case a.sidebar:
		a.app.SetFocus(a.input)
	case a.input:
		a.app.SetFocus(a.timeline)
	default:
		a.app.SetFocus(a.sidebar)
	}
}

func (a *App) openConversation(c models.Contact) {
	ctrl := a.ctrl
	a.app.SetFocus(a.input)
	a.do("select", func(ctx context.Context) error { return ctrl.Select(ctx, c.ID) })
}

func (a *App) refresh() {
	ctrl := a.ctrl
	a.do("refresh", func(ctx context.Context) error {
		if !ctrl.Connected() {
			// Start reloads the contacts itself
			if err := ctrl.Start(ctx); err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.setStatus(chatKeys, false) })
			return nil
		}
		if err := ctrl.RefreshContacts(ctx); err != nil {
			return err
		}
		if ctrl.Timeline().Contact() == "" {
			return nil
		}
		return ctrl.Timeline().Load(ctx)
	})
}

func (a *App) logout() {
	ctrl := a.ctrl
	a.setStatus("Signing out...", false)
	a.do("logout", func(ctx context.Context) error {
		if err := ctrl.Logout(ctx); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(a.signedOut)
		return nil
	})
}

// render copies the controller state into the chat widgets
func (a *App) render() {
	if a.ctrl == nil || a.sidebar == nil {
		return
	}
	ctrl := a.ctrl
	online := ctrl.Presence()
	dir := ctrl.Directory()

	a.friends = dir.Friends()
	current := a.sidebar.GetCurrentItem()
	a.sidebar.Clear()
	for _, f := range a.friends {
		a.sidebar.AddItem(contactLabel(f, online.IsOnline(f.ID)), "", 0, nil)
	}
	if current < len(a.friends) {
		a.sidebar.SetCurrentItem(current)
	}
	title := fmt.Sprintf(" Friends ─ %s ", ctrl.Me().DisplayName())
	if n := len(dir.Pending()); n > 0 {
		title = fmt.Sprintf(" Friends ─ %s ─ %d pending ", ctrl.Me().DisplayName(), n)
	}
	a.sidebar.SetTitle(title)

	a.renderTimeline(ctrl)
}

func (a *App) renderTimeline(ctrl *chat.Controller) {
	tl := ctrl.Timeline()
	a.timeline.Clear()
	a.shown = nil

	contactID := tl.Contact()
	if contactID == "" {
		a.timeline.SetTitle(" No conversation ")
		a.typing.SetText("")
		return
	}
	peer, ok := ctrl.Directory().Friend(contactID)
	if !ok {
		peer = models.Contact{ID: contactID}
	}
	if peer.DisplayName() == "" {
		peer.Username = contactID
	}
	a.timeline.SetTitle(chatTitle(peer, ctrl.Presence().IsOnline(contactID)))
	a.typing.SetText(typingLine(peer.DisplayName(), tl.Typing()))

	switch tl.State() {
	case timeline.StateLoading:
		a.timeline.AddItem("[gray]Loading messages...[-]", "", 0, nil)
		return
	case timeline.StateError:
		a.timeline.AddItem("[red]"+tview.Escape(chat.ErrorText(tl.Err()))+"[-]", "", 0, nil)
		return
	}

	now := time.Now()
	a.shown = tl.Messages()
	if len(a.shown) == 0 {
		a.timeline.AddItem("[gray]No messages yet. Say hi![-]", "", 0, nil)
		return
	}
	for _, m := range a.shown {
		a.timeline.AddItem(formatMessageLine(m, peer.DisplayName(), now), "", 0, nil)
	}
	a.timeline.SetCurrentItem(len(a.shown) - 1)
}
