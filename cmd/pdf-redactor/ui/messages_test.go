package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &out, &errOut
}

func TestMessages_NoColor(t *testing.T) {
	InitUI(true, false)
	out, errOut := capture(t)

	Success("Saved %s", "a.pdf")
	Warning("skipped %d", 2)
	Info("Effect: %s", "blur")
	Error("boom")

	assert.Equal(t, "✓ Saved a.pdf\n⚠ skipped 2\nℹ Effect: blur\n", out.String())
	assert.Equal(t, "✗ boom\n", errOut.String())
	assert.False(t, Verbose())
}

func TestSection(t *testing.T) {
	InitUI(true, true)
	out, _ := capture(t)

	Section("Redact")
	assert.Equal(t, "\nRedact\n======\n\n", out.String())
	assert.True(t, Verbose())
}
