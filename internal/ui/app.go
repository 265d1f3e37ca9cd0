package ui

import (
	"context"
	"time"

	"snappy/client/internal/admin"
	"snappy/client/internal/auth"
	"snappy/client/internal/chat"
	"snappy/client/internal/models"
	"snappy/client/internal/session"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"
)

const (
	pageBackground = "background"
	pageLogin      = "login"
	pageRegister   = "register"
	pageAvatar     = "avatar"
	pageChat       = "chat"
	pageAdmin      = "admin"
	pageDialog     = "dialog"
)

// Deps are the services the terminal front end drives
type Deps struct {
	Store         *session.Store
	API           chat.API
	Auth          *auth.Service
	Admin         *admin.Service
	Dial          chat.Dialer
	TypingTimeout time.Duration
	Logger        zerolog.Logger
}

// App is the terminal application
type App struct {
	deps Deps
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	app   *tview.Application
	pages *tview.Pages

	ctrl *chat.Controller

	// chat page, touched on the UI goroutine only
	sidebar   *tview.List
	timeline  *tview.List
	typing    *tview.TextView
	input     *tview.InputField
	statusBar *tview.TextView
	friends   []models.Contact
	shown     []models.Message

	// admin page
	users      *tview.Table
	userRows   []models.User
	adminState *tview.TextView
}

// NewApp creates the application
func NewApp(deps Deps) *App {
	return &App{
		deps: deps,
		log:  deps.Logger.With().Str("component", "ui").Logger(),
	}
}

// Run shows the UI until the user quits. A stored, unexpired session skips
// the login form.
func (a *App) Run(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	a.app = tview.NewApplication()
	a.pages = tview.NewPages()

	background := tview.NewBox()
	background.SetBackgroundColor(ColorBg)
	a.pages.AddPage(pageBackground, background, true, true)

	cur, err := a.deps.Store.Load()
	if err == nil && !a.deps.Store.TokenExpired(time.Now()) {
		a.route(auth.DestinationFor(cur.User))
	} else {
		a.showLogin()
	}

	err = a.app.SetRoot(a.pages, true).EnableMouse(false).Run()
	a.closeChat()
	return err
}

// route opens the view a signed-in user belongs on
func (a *App) route(dest auth.Destination) {
	a.log.Debug().Stringer("dest", dest).Msg("[ui] routing")
	switch dest {
	case auth.DestAvatar:
		a.showAvatar()
	case auth.DestAdmin:
		a.showAdmin()
	default:
		a.showChat()
	}
}

// do runs fn off the UI goroutine. Failures end up in the status bar.
func (a *App) do(what string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(a.ctx); err != nil {
			a.log.Warn().Err(err).Str("op", what).Msg("[ui] operation failed")
			a.app.QueueUpdateDraw(func() {
				a.setStatus(chat.ErrorText(err), true)
			})
		}
	}()
}

// redraw schedules a render of the chat page. Components call it from any
// goroutine, the UI one included, so it must not block.
func (a *App) redraw() {
	go a.app.QueueUpdateDraw(a.render)
}

func (a *App) notify(n chat.Notification) {
	go a.app.QueueUpdateDraw(func() {
		if n.Error {
			a.setStatus(n.Text, true)
			return
		}
		a.setStatus(n.Name+" "+n.Text, false)
	})
}

func (a *App) setStatus(text string, isErr bool) {
	view := a.statusBar
	if a.adminState != nil && a.pages.HasPage(pageAdmin) {
		view = a.adminState
	}
	if view == nil {
		return
	}
	if isErr {
		view.SetText("[red]" + tview.Escape(text) + "[-]")
		return
	}
	view.SetText(tview.Escape(text))
}

func (a *App) closeChat() {
	if a.ctrl != nil {
		a.ctrl.Close()
		a.ctrl = nil
	}
}

// signedOut drops every signed-in page and returns to the login form
func (a *App) signedOut() {
	a.closeChat()
	for _, name := range []string{pageChat, pageAdmin, pageAvatar, pageDialog} {
		a.pages.RemovePage(name)
	}
	a.statusBar, a.adminState = nil, nil
	a.showLogin()
}

func (a *App) quit() {
	a.closeChat()
	a.app.Stop()
}
