package ui

import (
	"snappy/client/internal/auth"
	"snappy/client/internal/chat"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func newStatusText() *tview.TextView {
	status := tview.NewTextView()
	status.SetBackgroundColor(ColorPanel)
	status.SetTextColor(tcell.ColorRed)
	status.SetTextAlign(tview.AlignCenter)
	status.SetDynamicColors(true)
	return status
}

func newField(label string, masked bool) *tview.InputField {
	field := tview.NewInputField()
	field.SetLabel(label)
	field.SetFieldWidth(32)
	if masked {
		field.SetMaskCharacter('*')
	}
	return field
}

// signIn runs a login or registration and routes on success
func (a *App) signIn(page string, status *tview.TextView, run func() (auth.Destination, error)) {
	status.SetText("[white]Please wait...[-]")
	go func() {
		dest, err := run()
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				status.SetText(tview.Escape(chat.ErrorText(err)))
				return
			}
			a.pages.RemovePage(page)
			a.route(dest)
		})
	}()
}

func (a *App) showLogin() {
	form := tview.NewForm()
	styleForm(form, " Snappy ─ Login ")
	status := newStatusText()

	email := newField("Email: ", false)
	password := newField("Password: ", true)
	form.AddFormItem(email)
	form.AddFormItem(password)

	form.AddButton("Login", func() {
		a.signIn(pageLogin, status, func() (auth.Destination, error) {
			return a.deps.Auth.Login(a.ctx, email.GetText(), password.GetText())
		})
	})
	form.AddButton("Register", func() {
		a.pages.RemovePage(pageLogin)
		a.showRegister()
	})
	form.AddButton("Quit", a.quit)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)
	a.pages.AddPage(pageLogin, centered(layout, 56, 11), true, true)
	a.app.SetFocus(form)
}

func (a *App) showRegister() {
	form := tview.NewForm()
	styleForm(form, " Snappy ─ Create account ")
	status := newStatusText()

	username := newField("Username: ", false)
	email := newField("Email: ", false)
	password := newField("Password: ", true)
	confirm := newField("Confirm: ", true)
	form.AddFormItem(username)
	form.AddFormItem(email)
	form.AddFormItem(password)
	form.AddFormItem(confirm)

	form.AddButton("Create", func() {
		a.signIn(pageRegister, status, func() (auth.Destination, error) {
			return a.deps.Auth.Register(a.ctx, auth.RegisterForm{
				Username:        username.GetText(),
				Email:           email.GetText(),
				Password:        password.GetText(),
				ConfirmPassword: confirm.GetText(),
			})
		})
	})
	form.AddButton("Back", func() {
		a.pages.RemovePage(pageRegister)
		a.showLogin()
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)
	a.pages.AddPage(pageRegister, centered(layout, 56, 15), true, true)
	a.app.SetFocus(form)
}

// showAvatar lets a fresh account pick its badge colour
func (a *App) showAvatar() {
	form := tview.NewForm()
	styleForm(form, " Pick an avatar ")
	status := newStatusText()

	name := ""
	if cur, ok := a.deps.Store.Current(); ok {
		name = cur.User.DisplayName()
	}

	choice := 0
	colors := tview.NewDropDown().
		SetLabel("Colour: ").
		SetOptions(avatarColors, func(_ string, index int) { choice = index }).
		SetCurrentOption(0)
	form.AddFormItem(colors)

	form.AddButton("Save", func() {
		image := avatarImage(name, avatarColors[choice])
		status.SetText("[white]Saving...[-]")
		go func() {
			err := a.deps.Auth.SetAvatar(a.ctx, image)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					status.SetText(tview.Escape(chat.ErrorText(err)))
					return
				}
				a.pages.RemovePage(pageAvatar)
				a.showChat()
			})
		}()
	})
	form.AddButton("Logout", func() {
		go func() {
			err := a.deps.Auth.Logout(a.ctx)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					status.SetText(tview.Escape(chat.ErrorText(err)))
					return
				}
				a.signedOut()
			})
		}()
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)
	a.pages.AddPage(pageAvatar, centered(layout, 48, 8), true, true)
	a.app.SetFocus(form)
}
