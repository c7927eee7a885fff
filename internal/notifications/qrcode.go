package notifications

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// qrDataURI encodes text as a PNG QR code data URI usable in an <img> tag
func qrDataURI(text string) (string, error) {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	png, err := qr.PNG(qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR to PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
