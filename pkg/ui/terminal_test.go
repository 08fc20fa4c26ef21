package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).Plain()

	p.Info("Frame", uint32(42))
	p.Error("Load failed", errors.New("no such file"))
	p.Error("Bare error")
	p.Warning("Regression", "frame 3 < 7")
	p.Success("Saved")
	p.Highlight("Checkpoint")
	p.Dim("secondary")
	p.Panel("boxed")
	p.Raw("raw")

	assert.Equal(t, "Frame: 42\n"+
		"Load failed: no such file\n"+
		"Bare error\n"+
		"Regression: frame 3 < 7\n"+
		"Saved\n"+
		"Checkpoint\n"+
		"secondary\n"+
		"boxed\n"+
		"raw", buf.String())
}

func TestStyledPrinterKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Info("Path", "/data/app.db-info")
	p.Panel("body")

	assert.Contains(t, buf.String(), "Path")
	assert.Contains(t, buf.String(), "/data/app.db-info")
	assert.Contains(t, buf.String(), "body")
}
