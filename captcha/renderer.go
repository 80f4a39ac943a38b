package captcha

import (
	"bytes"

	"github.com/mojocn/base64Captcha"
)

// imageRenderer draws the answer text into a noisy PNG using
// base64Captcha's string driver.
type imageRenderer struct {
	driver *base64Captcha.DriverString
}

// NewImageRenderer returns the default renderer: 240x80 PNG with
// hollow-line noise.
func NewImageRenderer() Renderer {
	driver := base64Captcha.NewDriverString(
		80, 240, 6,
		base64Captcha.OptionShowHollowLine,
		10, lowercase, nil, nil, nil,
	)
	return &imageRenderer{driver: driver.ConvertFonts()}
}

func (r *imageRenderer) Render(text string) ([]byte, error) {
	item, err := r.driver.DrawCaptcha(text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := item.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
