package selfupdate

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mistweaverco/selfupdate/internal/config"
)

// getColorConfigFunc provides access to the flag values from root.go
var getColorConfigFunc func() config.ConfigFlags

// SetColorConfigFunc sets the function to access color config
func SetColorConfigFunc(fn func() config.ConfigFlags) {
	getColorConfigFunc = fn
}

func getColorConfig() config.ConfigFlags {
	if getColorConfigFunc != nil {
		return getColorConfigFunc()
	}
	return config.ConfigFlags{Color: config.ColorModeAuto}
}

// isStdoutTTY is a variable to allow overriding in tests
var isStdoutTTY = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// shouldUseColors determines if colors/icons should be used based on
// color mode, output mode and TTY status
func shouldUseColors() bool {
	if !ShouldUseRichOutput() {
		return false
	}
	switch getColorConfig().Color {
	case config.ColorModeAlways:
		return true
	case config.ColorModeNever:
		return false
	default:
		return isStdoutTTY()
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

const (
	iconCheck   = "✓"
	iconClose   = "✗"
	iconAlert   = "⚠️"
	iconRefresh = "🔄"
	iconPackage = "📦"
	iconGitHub  = "🐙"
	iconGlobe   = "🌐"
	iconFolder  = "🗂️"
)

// Plain text alternatives for icons when not in TTY
const (
	textCheck   = "[✓]"
	textClose   = "[✗]"
	textAlert   = "[!]"
	textRefresh = "[~]"
	textPackage = "[pkg]"
	textGitHub  = "[gh]"
	textGlobe   = "[http]"
	textFolder  = "[dav]"
)

func icon(color, glyph, text string) string {
	if !shouldUseColors() {
		return text
	}
	return color + glyph + colorReset
}

func IconCheck() string   { return icon(colorGreen, iconCheck, textCheck) }
func IconClose() string   { return icon(colorRed, iconClose, textClose) }
func IconAlert() string   { return icon(colorYellow, iconAlert, textAlert) }
func IconRefresh() string { return icon(colorCyan, iconRefresh, textRefresh) }

// IconForType returns the icon of a repository type.
func IconForType(typ string) string {
	switch typ {
	case config.TypeGitHub:
		return icon(colorWhite, iconGitHub, textGitHub)
	case config.TypeHTTP:
		return icon(colorBlue, iconGlobe, textGlobe)
	case config.TypeWebDAV:
		return icon(colorBlue, iconFolder, textFolder)
	default:
		return icon(colorWhite, iconPackage, textPackage)
	}
}
