package tray

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/config"
	"light-dict/src/session"
)

func labels(tr *Tray) (names []string, checked []string) {
	for _, it := range tr.Items() {
		if it.IsSeparator {
			continue
		}
		names = append(names, it.Label)
		if it.Checked {
			checked = append(checked, it.Label)
		}
	}
	return names, checked
}

func TestMenuReflectsSettings(t *testing.T) {
	store := config.NewMemory(nil)
	tr := New(test.NewApp(), store, nil, nil)
	tr.Apply("mode", "popup")
	tr.Apply("passive", true)
	tr.Apply("ocr", false)

	names, checked := labels(tr)
	assert.Equal(t, []string{"Swift style", "Popup style", "Disabled", "Passive mode", "Enable OCR", "Run OCR", "Quit"}, names)
	assert.Equal(t, []string{"Popup style", "Passive mode"}, checked)

	items := tr.Items()
	assert.True(t, items[6].Disabled, "Run OCR is greyed out while OCR is off")
	assert.True(t, items[len(items)-1].IsQuit)
}

func TestMenuActionsWriteSettings(t *testing.T) {
	store := config.NewMemory(nil)
	var ocrRuns, quits int
	tr := New(test.NewApp(), store, func() { ocrRuns++ }, func() { quits++ })
	tr.Apply("mode", session.Swift.String())

	items := tr.Items()
	items[2].Action()
	assert.Equal(t, "disable", store.String(config.KeyTriggerStyle))

	items[4].Action()
	assert.True(t, store.Bool(config.KeyPassiveMode))

	items[5].Action()
	assert.True(t, store.Bool(config.KeyEnableOCR))

	items[6].Action()
	items[len(items)-1].Action()
	assert.Equal(t, 1, ocrRuns)
	assert.Equal(t, 1, quits)
}

func TestRenderWithoutTraySupport(t *testing.T) {
	tr := &Tray{settings: config.NewMemory(nil), enabled: true}
	require.NotPanics(t, func() { tr.ApplyGroup(BindingsGroup) })
	assert.False(t, tr.shown)
}
