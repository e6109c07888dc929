package ai

import (
	"errors"
	"testing"

	"finstress/internal/core"
)

func TestNewImage(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		mime string
		ok   bool
	}{
		{"png", pngHeader, "image/png", true},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), "image/jpeg", true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp", true},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "", false},
		{"text", []byte("hello, receipt"), "", false},
		{"empty", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := NewImage(tc.data)
			if tc.ok {
				if err != nil || img.MIMEType != tc.mime {
					t.Fatalf("NewImage = %+v, %v", img.MIMEType, err)
				}
				return
			}
			if !errors.Is(err, core.ErrUnreadableImage) {
				t.Fatalf("expected ErrUnreadableImage, got %v", err)
			}
		})
	}
}

func TestAllowedFile(t *testing.T) {
	for name, want := range map[string]bool{
		"receipt.png":  true,
		"scan.JPG":     true,
		"a.b.jpeg":     true,
		"photo.webp":   true,
		"receipt.pdf":  false,
		"noextension":  false,
		"archive.png.": false,
	} {
		if got := AllowedFile(name); got != want {
			t.Fatalf("AllowedFile(%q)=%v want %v", name, got, want)
		}
	}
}
