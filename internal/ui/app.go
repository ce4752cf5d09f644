// Package ui is the fyne front end: a drawing surface bound to a sync
// client, plus the toolbar and status strip around it.
package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"SketchRoom/internal/net"
	"SketchRoom/internal/presence"
	"SketchRoom/internal/sync"
)

// RunApp builds the sync client and the window around it, then blocks until
// the window closes. Closing the window keeps the persisted identity so the
// next launch rejoins as the same user; the toolbar's leave action is the
// explicit exit that discards it. The transport stays owned by the caller.
func RunApp(cfg sync.Config, transport net.Transport, store presence.Store, self presence.User) {
	a := app.New()
	win := a.NewWindow("SketchRoom - " + cfg.RoomID)
	win.Resize(fyne.NewSize(1024, 768))

	status := widget.NewLabel("connecting...")
	roster := widget.NewLabel(fmt.Sprintf("you are %s", self.Name))

	var boardW *BoardWidget
	var client *sync.Client

	client = sync.New(cfg, transport, store, self, sync.Hooks{
		OnChange: func() {
			fyne.Do(func() {
				if boardW == nil {
					return
				}
				boardW.Refresh()
				roster.SetText(rosterText(self, client.Frame().Users))
			})
		},
		OnStatus: func(connected bool) {
			fyne.Do(func() {
				if connected {
					status.SetText("connected")
				} else {
					status.SetText("reconnecting...")
				}
			})
		},
	})

	boardW = NewBoardWidget(client)
	toolbar := NewToolbar(boardW, client, win)
	statusBar := container.NewHBox(status, widget.NewSeparator(), roster)

	win.SetContent(container.NewBorder(toolbar, statusBar, nil, nil, boardW))
	win.ShowAndRun()

	client.Close()
}

func rosterText(self presence.User, users []presence.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID == self.ID || !u.Active {
			continue
		}
		names = append(names, u.Name)
	}
	if len(names) == 0 {
		return fmt.Sprintf("you are %s (alone)", self.Name)
	}
	return fmt.Sprintf("you are %s, with %s", self.Name, strings.Join(names, ", "))
}
