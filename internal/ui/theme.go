package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Colors
var (
	ColorBg        = tcell.NewRGBColor(19, 17, 36)
	ColorPanel     = tcell.NewRGBColor(13, 13, 48)
	ColorFg        = tcell.NewRGBColor(220, 220, 230)
	ColorBorder    = tcell.NewRGBColor(78, 14, 255)
	ColorTitle     = tcell.NewRGBColor(255, 255, 255)
	ColorHighlight = tcell.NewRGBColor(154, 134, 243)
	ColorStatus    = tcell.NewRGBColor(78, 14, 255)
	ColorField     = tcell.NewRGBColor(0, 0, 64)
)

func styleForm(form *tview.Form, title string) {
	form.SetBackgroundColor(ColorPanel)
	form.SetFieldBackgroundColor(ColorField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorBorder)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(title)
	form.SetTitleColor(ColorTitle)
}

func styleBox(box *tview.Box, title string) {
	box.SetBorder(true)
	box.SetBorderColor(ColorBorder)
	box.SetBackgroundColor(ColorPanel)
	box.SetTitle(title)
	box.SetTitleColor(ColorTitle)
}

// centered wraps p in a fixed-size box in the middle of the screen
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(p, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
}
