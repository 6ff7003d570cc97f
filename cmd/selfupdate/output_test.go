package selfupdate

import (
	"bytes"
	"testing"

	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFlags(t *testing.T, flags config.ConfigFlags) {
	t.Helper()
	prev := cfg.Flags
	cfg.Flags = flags
	t.Cleanup(func() { cfg.Flags = prev })
}

func TestOutputModes(t *testing.T) {
	withFlags(t, config.ConfigFlags{Output: config.OutputModeJSON})
	assert.True(t, ShouldUseJSONOutput())
	assert.False(t, ShouldUsePlainOutput())
	assert.False(t, ShouldUseRichOutput())

	cfg.Flags.Output = config.OutputModePlain
	assert.True(t, ShouldUsePlainOutput())

	cfg.Flags.Output = ""
	assert.Equal(t, config.OutputModeRich, GetOutputMode())
	assert.True(t, ShouldUseRichOutput())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]string{"version": "1.1.0"}))
	assert.Equal(t, "{\n  \"version\": \"1.1.0\"\n}\n", buf.String())
}

func TestRemoveMarkdownFormatting(t *testing.T) {
	in := "# Release\n\n**Bold** and *italic* with `code` and [a link](https://example.com)\n\n```\nblock\n```"
	out := RemoveMarkdownFormatting(in)
	assert.Contains(t, out, "Release")
	assert.Contains(t, out, "Bold and italic with code and a link")
	assert.NotContains(t, out, "block")
	assert.NotContains(t, out, "https://example.com")
}

func TestIcons(t *testing.T) {
	prevTTY := isStdoutTTY
	defer func() { isStdoutTTY = prevTTY }()
	isStdoutTTY = func() bool { return false }

	withFlags(t, config.ConfigFlags{Output: config.OutputModeRich, Color: config.ColorModeAuto})
	assert.Equal(t, "[✓]", IconCheck())
	assert.Equal(t, "[gh]", IconForType(config.TypeGitHub))
	assert.Equal(t, "[dav]", IconForType(config.TypeWebDAV))
	assert.Equal(t, "[pkg]", IconForType("ftp"))

	isStdoutTTY = func() bool { return true }
	assert.Equal(t, colorGreen+iconCheck+colorReset, IconCheck())

	cfg.Flags.Color = config.ColorModeNever
	assert.Equal(t, "[!]", IconAlert())

	cfg.Flags.Color = config.ColorModeAlways
	assert.Equal(t, colorBlue+iconGlobe+colorReset, IconForType(config.TypeHTTP))

	cfg.Flags.Output = config.OutputModePlain
	assert.Equal(t, "[✗]", IconClose())
}
