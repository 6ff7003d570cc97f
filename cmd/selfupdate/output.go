package selfupdate

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/mistweaverco/selfupdate/internal/config"
)

// GetOutputMode returns the current output mode from config
func GetOutputMode() config.OutputMode {
	if getColorConfigFunc != nil {
		if mode := getColorConfigFunc().Output; mode != "" {
			return mode
		}
	}
	return config.OutputModeRich
}

// ShouldUsePlainOutput returns true if output should be plain (no colors, no icons)
func ShouldUsePlainOutput() bool {
	return GetOutputMode() == config.OutputModePlain
}

// ShouldUseJSONOutput returns true if output should be JSON
func ShouldUseJSONOutput() bool {
	return GetOutputMode() == config.OutputModeJSON
}

func ShouldUseRichOutput() bool {
	return GetOutputMode() == config.OutputModeRich
}

// PrintJSON outputs data as JSON
func PrintJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

var (
	mdHeader     = regexp.MustCompile(`(?m)^#+\s*`)
	mdBold       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	mdItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	mdCodeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	mdBlankLines = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// RemoveMarkdownFormatting removes markdown formatting from text
func RemoveMarkdownFormatting(text string) string {
	text = mdHeader.ReplaceAllString(text, "")
	text = mdBold.ReplaceAllString(text, "$1")
	text = mdItalic.ReplaceAllString(text, "$1")
	text = mdCodeBlock.ReplaceAllString(text, "")
	text = mdInlineCode.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
