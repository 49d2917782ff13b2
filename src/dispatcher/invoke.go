package dispatcher

import (
	"context"
	"log/slog"
	"strings"

	"light-dict/src/errs"
	"light-dict/src/ocr"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

// Invocation kinds accepted by Invoke.
const (
	KindSwift   = "swift"
	KindPopup   = "popup"
	KindDisplay = "display"
	KindAuto    = "auto"
)

// Invoke re-enters the engine with an explicit selection. kind is
// swift[:name], popup, display or auto (the current trigger mode). For
// display, info is the panel title; otherwise a non-empty info replaces the
// focused application id. An empty rect anchors at the pointer.
func (d *Dispatcher) Invoke(kind, text, info string, rect windowing.Rect) error {
	base, name, _ := strings.Cut(strings.TrimSpace(kind), ":")
	base = strings.ToLower(base)
	if base == KindAuto {
		switch d.mode {
		case session.Swift:
			base = KindSwift
		case session.Popup:
			base = KindPopup
		default:
			return nil
		}
	}
	if name != "" && base != KindSwift {
		return errs.Newf(errs.CodeInvalidArgs, "kind %q takes no command name", kind)
	}

	sel := session.Selection{Text: text, Anchor: d.anchor(rect)}
	switch base {
	case KindDisplay:
		d.Bar.Hide()
		d.Panel.Summon(info, text, false, sel.Anchor)
		return nil
	case KindSwift, KindPopup:
	default:
		return errs.Newf(errs.CodeInvalidArgs, "unknown kind %q", kind)
	}

	if strings.TrimSpace(text) == "" {
		return errs.New(errs.CodeInvalidArgs, "empty text")
	}
	sel.AppID = info
	if sel.AppID == "" {
		if w, ok := d.rt.Focused(); ok {
			sel.AppID = w.AppID
		}
	}
	d.current = sel

	if base == KindSwift {
		return d.runSwift(sel, name)
	}
	d.Panel.Dismiss()
	if !d.Bar.Summon(sel) {
		slog.Debug("invoke popup: no eligible commands")
	}
	return nil
}

func (d *Dispatcher) anchor(rect windowing.Rect) windowing.Rect {
	if !rect.Empty() {
		return rect
	}
	p, _, err := d.rt.Pointer()
	if err != nil {
		return windowing.Rect{}
	}
	return windowing.AnchorAt(p)
}

// OCR runs the OCR helper in the background. A non-empty params replaces
// the configured helper arguments. Output is shown in the panel.
func (d *Dispatcher) OCR(params string) error {
	if !d.ocrEnabled {
		return errs.New(errs.CodeUnavailable, "OCR is disabled (enable-ocr)")
	}
	args, err := ocr.Args(d.ocrMode, d.ocrParams, params)
	if err != nil {
		return err
	}
	anchor := d.anchor(windowing.Rect{})
	helper := d.helper
	ok := d.runner.Go(func() func() {
		out, err := helper.Run(context.Background(), args)
		return func() {
			if err != nil {
				d.Panel.Summon("OCR", err.Error(), true, anchor)
				return
			}
			if out != "" {
				d.Panel.Summon("OCR", out, false, anchor)
			}
		}
	})
	if !ok {
		return errs.New(errs.CodeBusy, "Busy, please retry")
	}
	return nil
}

// Get answers geometry queries for the process holding the screenshot grant.
// Unknown properties are rejected; an unknown focused window is an empty array.
func (d *Dispatcher) Get(pid int, props []string) ([][]int32, error) {
	if !d.grant.Holds(pid) {
		return nil, errs.New(errs.CodeAccessDenied, "caller does not hold the screenshot grant")
	}
	out := make([][]int32, 0, len(props))
	for _, prop := range props {
		switch prop {
		case "display":
			w, h := d.rt.ScreenSize()
			out = append(out, []int32{int32(w), int32(h)})
		case "pointer":
			p, _, err := d.rt.Pointer()
			if err != nil {
				return nil, errs.Wrap(err, errs.CodeUnavailable, "pointer query failed")
			}
			out = append(out, []int32{int32(p.X), int32(p.Y)})
		case "focused":
			w, ok := d.rt.Focused()
			if !ok || w.Bounds.Empty() {
				out = append(out, []int32{})
				continue
			}
			out = append(out, w.Bounds.Ints())
		default:
			return nil, errs.Newf(errs.CodeInvalidArgs, "unknown property %q", prop)
		}
	}
	return out, nil
}
