// Package qrcode builds image references for the hosted QR generator. The
// generator is an external service; this package only formats its URL.
package qrcode

import (
	"fmt"
	"net/url"
)

// Renderer turns arbitrary data into a QR image URL.
type Renderer interface {
	ImageURL(data string) string
}

// Hosted points at a service compatible with api.qrserver.com.
type Hosted struct {
	BaseURL string
	Size    int
}

func NewHosted(baseURL string, size int) Hosted {
	return Hosted{BaseURL: baseURL, Size: size}
}

func (h Hosted) ImageURL(data string) string {
	q := url.Values{}
	q.Set("size", fmt.Sprintf("%dx%d", h.Size, h.Size))
	q.Set("data", data)
	return h.BaseURL + "?" + q.Encode()
}
