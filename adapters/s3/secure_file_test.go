package s3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leiloes/adapters/s3"
)

func TestCheckSecureImageAndGetExtension(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		wantOK   bool
		wantExt  string
	}{
		{name: "jpeg allowed", mimeType: "image/jpeg", wantOK: true, wantExt: "jpeg"},
		{name: "png allowed", mimeType: "image/png", wantOK: true, wantExt: "png"},
		{name: "webp allowed", mimeType: "image/webp", wantOK: true, wantExt: "webp"},
		{name: "svg rejected", mimeType: "image/svg+xml", wantOK: false},
		{name: "pdf is not a lot photo", mimeType: "application/pdf", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, ext := s3.CheckSecureImageAndGetExtension(tt.mimeType)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestCheckDocumentAndGetExtension(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		wantOK   bool
		wantExt  string
	}{
		{name: "pdf allowed", mimeType: "application/pdf", wantOK: true, wantExt: "pdf"},
		{name: "jpeg allowed", mimeType: "image/jpeg", wantOK: true, wantExt: "jpeg"},
		{name: "png allowed", mimeType: "image/png", wantOK: true, wantExt: "png"},
		{name: "gif rejected for documents", mimeType: "image/gif", wantOK: false},
		{name: "zip rejected", mimeType: "application/zip", wantOK: false},
		{name: "html rejected", mimeType: "text/html; charset=utf-8", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, ext := s3.CheckDocumentAndGetExtension(tt.mimeType)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}
