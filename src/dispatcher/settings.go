package dispatcher

import (
	"log/slog"

	"light-dict/src/command"
	"light-dict/src/config"
	"light-dict/src/ocr"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

// Bindings are the settings the dispatcher itself follows.
var Bindings = config.Bindings{
	"mode":        {Key: config.KeyTriggerStyle, Kind: config.String},
	"swiftList":   {Key: config.KeySwiftList, Kind: config.StringArray},
	"swiftActive": {Key: config.KeySwiftActive, Kind: config.Uint},
	"leftCmd":     {Key: config.KeyLeftCommand, Kind: config.String},
	"rightCmd":    {Key: config.KeyRightCommand, Kind: config.String},
	"ocrEnabled":  {Key: config.KeyEnableOCR, Kind: config.Bool},
	"dwellOCR":    {Key: config.KeyDwellOCR, Kind: config.Bool},
	"ocrMode":     {Key: config.KeyOCRMode, Kind: config.String},
	"ocrParams":   {Key: config.KeyOCRParams, Kind: config.String},
	"ocrModifier": {Key: config.KeyOCRModifier, Kind: config.String},
}

// BindingsGroup rebuilds the dwell detector state after OCR settings change.
const BindingsGroup = "ocr"

func (d *Dispatcher) Apply(field string, v any) {
	switch field {
	case "mode":
		m, err := session.ParseTriggerMode(v.(string))
		if err != nil {
			slog.Warn("ignoring trigger style", "error", err)
			return
		}
		d.setMode(m)
	case "swiftList":
		d.swift = command.DecodeList(v.([]string))
	case "swiftActive":
		d.swiftActive = int(v.(uint))
	case "leftCmd":
		d.leftCmd = v.(string)
	case "rightCmd":
		d.rightCmd = v.(string)
	case "ocrEnabled":
		d.ocrEnabled = v.(bool)
	case "dwellOCR":
		d.dwellOCR = v.(bool)
	case "ocrMode":
		d.ocrMode = ocr.ParseMode(v.(string))
	case "ocrParams":
		d.ocrParams = v.(string)
	case "ocrModifier":
		if m := windowing.ParseModifier(v.(string)); m != 0 {
			d.ocrModifier = m
		}
	}
}

// ApplyGroup starts the dwell detector only while dwell OCR is enabled, and
// tears it down synchronously otherwise.
func (d *Dispatcher) ApplyGroup(string) {
	d.SetOCR(d.ocrEnabled, d.dwellOCR)
}

// SetOCR enables OCR and dwell-triggered OCR.
func (d *Dispatcher) SetOCR(enabled, dwellOnly bool) {
	d.ocrEnabled, d.dwellOCR = enabled, dwellOnly
	if enabled && dwellOnly && d.running {
		d.Dwell.Start()
		return
	}
	d.Dwell.Stop()
}

// SetSwift replaces the swift command list and the active index.
func (d *Dispatcher) SetSwift(cmds []command.Command, active int) {
	d.swift = cmds
	d.swiftActive = active
}

// SetSideCommands sets the panel's left and right click commands.
func (d *Dispatcher) SetSideCommands(left, right string) {
	d.leftCmd, d.rightCmd = left, right
}
