// Package qrcode renders provisioning URIs as QR code images so
// authenticator apps can enroll without manual secret entry.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent indicates an empty or whitespace-only content string.
	ErrEmptyContent = errors.New("qrcode: content is empty")
	// ErrEncodeFailed indicates the underlying encoder rejected the content.
	ErrEncodeFailed = errors.New("qrcode: encode failed")
)

const defaultSize = 256

// PNG encodes content as a QR code PNG of size x size pixels. A size of 0
// or less uses the 256px default.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}

	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}

	return png, nil
}

// DataURI encodes content as a QR code and returns it as a data: URI
// suitable for embedding directly in an <img> tag.
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
