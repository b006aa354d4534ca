package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

func TestUploadService_Upload(t *testing.T) {
	svc := NewUploadService(&stubStorage{}, 0, zerolog.Nop())
	if svc.MaxBytes() != DefaultMaxUploadBytes {
		t.Fatalf("expected default limit %d, got %d", DefaultMaxUploadBytes, svc.MaxBytes())
	}

	tests := []struct {
		mime string
		want domain.BlockType
	}{
		{"image/png", domain.BlockImage},
		{"IMAGE/JPEG", domain.BlockImage},
		{"video/mp4", domain.BlockVideo},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			block, err := svc.Upload(context.Background(), ports.UploadInput{Filename: "f", MimeType: tt.mime, Data: []byte("data")})
			if err != nil {
				t.Fatalf("upload: %v", err)
			}
			if block.Type != tt.want {
				t.Fatalf("expected block type %s, got %s", tt.want, block.Type)
			}
			if block.Value != "uploads/f" {
				t.Fatalf("expected storage key as value, got %q", block.Value)
			}
			if block.Metadata["url"] != "https://cdn.example.com/uploads/f" || block.Metadata["size"] != 4 {
				t.Fatalf("unexpected metadata: %v", block.Metadata)
			}
		})
	}
}

func TestUploadService_Upload_Rejects(t *testing.T) {
	svc := NewUploadService(&stubStorage{}, 8, zerolog.Nop())

	tests := []struct {
		name string
		in   ports.UploadInput
		want error
	}{
		{"empty", ports.UploadInput{Filename: "f", MimeType: "image/png"}, domain.ErrValidation},
		{"too large", ports.UploadInput{Filename: "f", MimeType: "image/png", Data: bytes.Repeat([]byte("x"), 9)}, domain.ErrFileTooLarge},
		{"pdf", ports.UploadInput{Filename: "f.pdf", MimeType: "application/pdf", Data: []byte("x")}, domain.ErrUnsupportedMedia},
		{"audio", ports.UploadInput{Filename: "f.mp3", MimeType: "audio/mpeg", Data: []byte("x")}, domain.ErrUnsupportedMedia},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Upload(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
