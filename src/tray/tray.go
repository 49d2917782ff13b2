// Package tray puts the trigger style and engine switches in the system tray.
package tray

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"light-dict/src/config"
	"light-dict/src/session"
)

var Bindings = config.Bindings{
	"mode":    {Key: config.KeyTriggerStyle, Kind: config.String},
	"passive": {Key: config.KeyPassiveMode, Kind: config.Bool},
	"ocr":     {Key: config.KeyEnableOCR, Kind: config.Bool},
	"enabled": {Key: config.KeyEnableSystray, Kind: config.Bool},
}

// BindingsGroup redraws the menu once per settings change.
const BindingsGroup = "tray"

// Settings persists menu choices. *config.Store implements it.
type Settings interface {
	Set(key string, value any) error
}

// Tray owns the tray menu. Apply runs on the loop; menu actions run on the
// fyne goroutine and only write settings or call the given callbacks.
type Tray struct {
	desk     desktop.App
	settings Settings
	onOCR    func()
	onQuit   func()

	mode    session.TriggerMode
	passive bool
	ocr     bool
	enabled bool
	shown   bool
}

// New returns a tray for app. Apps without tray support get a tray that
// only tracks state.
func New(app fyne.App, settings Settings, onOCR, onQuit func()) *Tray {
	t := &Tray{settings: settings, onOCR: onOCR, onQuit: onQuit, enabled: true}
	if desk, ok := app.(desktop.App); ok {
		t.desk = desk
	} else {
		slog.Info("tray: system tray not supported by this driver")
	}
	return t
}

func (t *Tray) Apply(field string, v any) {
	switch field {
	case "mode":
		if m, err := session.ParseTriggerMode(v.(string)); err == nil {
			t.mode = m
		}
	case "passive":
		t.passive = v.(bool)
	case "ocr":
		t.ocr = v.(bool)
	case "enabled":
		t.enabled = v.(bool)
	}
}

func (t *Tray) ApplyGroup(string) { t.render() }

func (t *Tray) render() {
	if t.desk == nil {
		return
	}
	if !t.enabled {
		if t.shown {
			// fyne cannot remove a tray icon; an empty menu is the closest.
			fyne.Do(func() { t.desk.SetSystemTrayMenu(fyne.NewMenu("light-dict", t.quitItem())) })
		}
		return
	}
	menu := fyne.NewMenu("light-dict", t.Items()...)
	first := !t.shown
	t.shown = true
	fyne.Do(func() {
		if first {
			t.desk.SetSystemTrayIcon(Icon)
		}
		t.desk.SetSystemTrayMenu(menu)
	})
}

// Items builds the menu for the current state.
func (t *Tray) Items() []*fyne.MenuItem {
	var items []*fyne.MenuItem
	for _, m := range []session.TriggerMode{session.Swift, session.Popup, session.Disable} {
		item := fyne.NewMenuItem(styleLabel(m), t.setter(config.KeyTriggerStyle, m.String()))
		item.Checked = t.mode == m
		items = append(items, item)
	}
	items = append(items, fyne.NewMenuItemSeparator())

	passive := fyne.NewMenuItem("Passive mode", t.setter(config.KeyPassiveMode, !t.passive))
	passive.Checked = t.passive
	items = append(items, passive)

	ocrToggle := fyne.NewMenuItem("Enable OCR", t.setter(config.KeyEnableOCR, !t.ocr))
	ocrToggle.Checked = t.ocr
	items = append(items, ocrToggle)

	runOCR := fyne.NewMenuItem("Run OCR", func() {
		if t.onOCR != nil {
			t.onOCR()
		}
	})
	runOCR.Disabled = !t.ocr
	items = append(items, runOCR, fyne.NewMenuItemSeparator(), t.quitItem())
	return items
}

func (t *Tray) quitItem() *fyne.MenuItem {
	quit := fyne.NewMenuItem("Quit", func() {
		if t.onQuit != nil {
			t.onQuit()
		}
	})
	quit.IsQuit = true
	return quit
}

func (t *Tray) setter(key string, value any) func() {
	return func() {
		if err := t.settings.Set(key, value); err != nil {
			slog.Warn("tray: failed to save setting", "key", key, "error", err)
		}
	}
}

func styleLabel(m session.TriggerMode) string {
	switch m {
	case session.Swift:
		return "Swift style"
	case session.Popup:
		return "Popup style"
	default:
		return "Disabled"
	}
}
