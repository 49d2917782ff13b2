package config

// Setting keys of the live settings document.
const (
	KeyTriggerStyle      = "trigger-style"
	KeyPassiveMode       = "passive-mode"
	KeyPassiveModifier   = "passive-modifier"
	KeyAppList           = "app-list"
	KeyListType          = "list-type"
	KeyTextStrip         = "text-strip"
	KeySwiftList         = "swift-list"
	KeySwiftActive       = "swift-active"
	KeyPopupList         = "popup-list"
	KeyPageSize          = "page-size"
	KeyAutoHide          = "auto-hide"
	KeyTooltipDivisor    = "tooltip-divisor"
	KeyMaxHeightFraction = "max-height-fraction"
	KeyLeftCommand       = "left-command"
	KeyRightCommand      = "right-command"
	KeyEnableOCR         = "enable-ocr"
	KeyDwellOCR          = "dwell-ocr"
	KeyOCRMode           = "ocr-mode"
	KeyOCRParams         = "ocr-params"
	KeyOCRModifier       = "ocr-modifier"
	KeyEnableScript      = "enable-script"
	KeyEnableSystray     = "enable-systray"
	KeyShortcutToggle    = "shortcut-toggle"
	KeyShortcutOCR       = "shortcut-ocr"
	KeyEnableHistory     = "enable-history"
)

// Defaults is the settings document used for keys absent from the file.
var Defaults = map[string]any{
	KeyTriggerStyle:    "swift",
	KeyPassiveMode:     false,
	KeyPassiveModifier: "ctrl",
	KeyAppList:         []any{},
	KeyListType:        "deny",
	KeyTextStrip:       true,
	KeySwiftList: []any{
		`{"name":"echo","icon":"accessories-dictionary","command":"echo LDWORD","popup":true,"enable":true}`,
	},
	KeySwiftActive: 0,
	KeyPopupList: []any{
		`{"name":"copy","icon":"edit-copy","tooltip":"Copy","command":"printf %s LDWORD","clip":true,"enable":true}`,
		`{"name":"search","icon":"web-browser","tooltip":"Search the web","command":"xdg-open https://duckduckgo.com/?q=LDWORD","enable":true}`,
		`{"name":"lower","icon":"format-text-lowercase","tooltip":"Lowercase","command":"printf %s LDWORD | tr '[:upper:]' '[:lower:]'","commit":true,"enable":true}`,
	},
	KeyPageSize:          0,
	KeyAutoHide:          2500,
	KeyTooltipDivisor:    4,
	KeyMaxHeightFraction: 50,
	KeyLeftCommand:       "",
	KeyRightCommand:      "",
	KeyEnableOCR:         false,
	KeyDwellOCR:          false,
	KeyOCRMode:           "word",
	KeyOCRParams:         "",
	KeyOCRModifier:       "ctrl",
	KeyEnableScript:      false,
	KeyEnableSystray:     true,
	KeyShortcutToggle:    "Ctrl+Alt+L",
	KeyShortcutOCR:       "Ctrl+Alt+O",
	KeyEnableHistory:     false,
}
