package ui

import (
	"context"
	"strings"

	"snappy/client/internal/chat"
	"snappy/client/internal/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) openDialog(p tview.Primitive, width, height int, focus tview.Primitive) {
	a.pages.RemovePage(pageDialog)
	a.pages.AddPage(pageDialog, centered(p, width, height), true, true)
	a.app.SetFocus(focus)
}

func (a *App) closeDialog() {
	a.pages.RemovePage(pageDialog)
	if a.sidebar != nil {
		a.app.SetFocus(a.sidebar)
	}
}

// dialogForm builds a form whose Esc closes the dialog
func (a *App) dialogForm(title string) (*tview.Form, *tview.TextView, *tview.Flex) {
	form := tview.NewForm()
	styleForm(form, title)
	status := newStatusText()
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)
	layout.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			a.closeDialog()
			return nil
		}
		return event
	})
	return form, status, layout
}

// submit runs fn in the background and closes the dialog when it succeeds
func (a *App) submit(status *tview.TextView, done string, fn func(ctx context.Context) error) {
	status.SetText("[white]Please wait...[-]")
	go func() {
		err := fn(a.ctx)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				status.SetText(tview.Escape(chat.ErrorText(err)))
				return
			}
			a.closeDialog()
			if done != "" {
				a.setStatus(done, false)
			}
		})
	}()
}

func (a *App) showAddFriendDialog() {
	ctrl := a.ctrl
	form, status, layout := a.dialogForm(" Add friend ")
	email := newField("Email: ", false)
	form.AddFormItem(email)

	form.AddButton("Send", func() {
		addr := strings.TrimSpace(email.GetText())
		a.submit(status, "Friend request sent to "+addr, func(ctx context.Context) error {
			return ctrl.SendRequest(ctx, addr)
		})
	})
	form.AddButton("Cancel", a.closeDialog)
	a.openDialog(layout, 52, 8, form)
}

func (a *App) showRequestsDialog() {
	ctrl := a.ctrl
	pending := ctrl.Directory().Pending()

	list := tview.NewList()
	styleBox(list.Box, " Friend requests ")
	list.SetMainTextColor(ColorFg)
	list.SetSelectedBackgroundColor(ColorBorder)
	list.ShowSecondaryText(false)
	if len(pending) == 0 {
		list.AddItem("No pending requests", "", 0, nil)
	}
	for _, r := range pending {
		list.AddItem(tview.Escape(requestLabel(r)), "", 0, nil)
	}
	list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(pending) {
			a.showRequestChoice(pending[index])
		}
	})
	list.SetDoneFunc(a.closeDialog)
	a.openDialog(list, 52, 12, list)
}

func (a *App) showRequestChoice(r models.FriendRequest) {
	ctrl := a.ctrl
	modal := tview.NewModal().
		SetText(requestLabel(r) + " wants to be your friend").
		AddButtons([]string{"Accept", "Decline", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			a.closeDialog()
			switch label {
			case "Accept":
				a.do("accept", func(ctx context.Context) error { return ctrl.Accept(ctx, r.SenderID) })
			case "Decline":
				a.do("decline", func(ctx context.Context) error { return ctrl.Decline(ctx, r.SenderID) })
			}
		})
	a.pages.RemovePage(pageDialog)
	a.pages.AddPage(pageDialog, modal, true, true)
	a.app.SetFocus(modal)
}

// showMessageDialog offers edit and delete for one of our recent messages
func (a *App) showMessageDialog(m models.Message) {
	ctrl := a.ctrl
	if !ctrl.Timeline().CanModify(m.ID) {
		a.setStatus("Only your own messages from the last 10 minutes can be changed", true)
		return
	}

	form, status, layout := a.dialogForm(" Edit message ")
	text := tview.NewInputField().SetLabel("Text: ").SetText(m.Text).SetFieldWidth(48)
	form.AddFormItem(text)

	form.AddButton("Save", func() {
		updated := text.GetText()
		a.submit(status, "", func(ctx context.Context) error {
			return ctrl.Edit(ctx, m.ID, updated)
		})
	})
	form.AddButton("Delete", func() {
		a.submit(status, "Message deleted", func(ctx context.Context) error {
			return ctrl.Remove(ctx, m.ID)
		})
	})
	form.AddButton("Cancel", a.closeDialog)
	a.openDialog(layout, 64, 8, form)
}
