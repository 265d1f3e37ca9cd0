package ui

import (
	"context"
	"strconv"

	"snappy/client/internal/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const adminKeys = " r:Toggle role | d:Delete | F5:Refresh | F9:Logout | F10:Quit "

// toggledRole is the role the r key switches a user to
func toggledRole(r models.Role) models.Role {
	if r == models.RoleAdmin {
		return models.RoleUser
	}
	return models.RoleAdmin
}

func (a *App) showAdmin() {
	a.users = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	styleBox(a.users.Box, " Users ")
	a.users.SetSelectedStyle(tcell.StyleDefault.Background(ColorBorder).Foreground(ColorTitle))

	a.adminState = tview.NewTextView()
	a.adminState.SetDynamicColors(true)
	a.adminState.SetBackgroundColor(ColorStatus)
	a.adminState.SetTextColor(ColorTitle)
	a.adminState.SetTextAlign(tview.AlignCenter)
	a.adminState.SetText(adminKeys)

	page := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.users, 0, 1, true).
		AddItem(a.adminState, 1, 0, false)
	page.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			a.loadUsers()
			return nil
		case tcell.KeyF9:
			a.adminLogout()
			return nil
		case tcell.KeyF10:
			a.quit()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'r':
				a.toggleRole()
				return nil
			case 'd':
				a.confirmDelete()
				return nil
			}
		}
		return event
	})

	a.pages.AddPage(pageAdmin, page, true, true)
	a.app.SetFocus(a.users)
	a.loadUsers()
}

func (a *App) selectedUser() (models.User, bool) {
	row, _ := a.users.GetSelection()
	if row < 1 || row > len(a.userRows) {
		return models.User{}, false
	}
	return a.userRows[row-1], true
}

func (a *App) loadUsers() {
	a.do("list users", func(ctx context.Context) error {
		users, err := a.deps.Admin.Users(ctx)
		if err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() { a.renderUsers(users) })
		return nil
	})
}

func (a *App) renderUsers(users []models.User) {
	a.userRows = users
	a.users.Clear()
	for col, title := range []string{"Username", "Email", "Role", "Avatar"} {
		a.users.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(ColorHighlight).
			SetSelectable(false).
			SetExpansion(1))
	}
	for i, u := range users {
		avatar := "no"
		if u.IsAvatarImageSet {
			avatar = "yes"
		}
		row := i + 1
		a.users.SetCell(row, 0, tview.NewTableCell(tview.Escape(u.Username)).SetTextColor(ColorFg))
		a.users.SetCell(row, 1, tview.NewTableCell(tview.Escape(u.Email)).SetTextColor(ColorFg))
		a.users.SetCell(row, 2, tview.NewTableCell(string(u.Role)).SetTextColor(ColorFg))
		a.users.SetCell(row, 3, tview.NewTableCell(avatar).SetTextColor(ColorFg))
	}
	a.users.SetTitle(" Users ─ " + strconv.Itoa(len(users)) + " ")
	if len(users) > 0 {
		a.users.Select(1, 0)
	}
}

func (a *App) toggleRole() {
	u, ok := a.selectedUser()
	if !ok {
		return
	}
	role := toggledRole(u.Role)
	a.do("update role", func(ctx context.Context) error {
		if err := a.deps.Admin.UpdateRole(ctx, u.ID, role); err != nil {
			return err
		}
		a.loadUsers()
		return nil
	})
}

func (a *App) confirmDelete() {
	u, ok := a.selectedUser()
	if !ok {
		return
	}
	modal := tview.NewModal().
		SetText("Delete " + u.DisplayName() + "?").
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.RemovePage(pageDialog)
			a.app.SetFocus(a.users)
			if label != "Delete" {
				return
			}
			a.do("delete user", func(ctx context.Context) error {
				if err := a.deps.Admin.DeleteUser(ctx, u.ID); err != nil {
					return err
				}
				a.loadUsers()
				return nil
			})
		})
	a.pages.AddPage(pageDialog, modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) adminLogout() {
	a.do("logout", func(ctx context.Context) error {
		if err := a.deps.Auth.Logout(ctx); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(a.signedOut)
		return nil
	})
}
