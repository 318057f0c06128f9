// Package tesseract implements ocr.Engine on top of libtesseract through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes single images with a fresh gosseract client per call.
type Engine struct {
	languages     []string
	dpi           int
	clientFactory func() *gosseract.Client
}

// New returns an engine using the given tesseract language packs, e.g. "eng", "fra".
// dpi is passed as user_defined_dpi when positive.
func New(languages []string, dpi int) *Engine {
	return &Engine{languages: languages, dpi: dpi, clientFactory: gosseract.NewClient}
}

// Languages returns the configured language packs.
func (e *Engine) Languages() []string { return e.languages }

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.dpi)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
