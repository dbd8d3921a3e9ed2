package extract

import (
	"errors"
	"testing"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		wantKind Kind
		wantMIME string
		wantErr  error
	}{
		{"txt extension", "notes.txt", nil, KindText, "text/plain", nil},
		{"markdown extension", "README.md", nil, KindText, "text/plain", nil},
		{"pdf extension", "report.PDF", nil, KindPDF, "application/pdf", nil},
		{"png extension", "scan.png", nil, KindImage, "image/png", nil},
		{"jpeg extension", "photo.JPEG", nil, KindImage, "image/jpeg", nil},
		{"webp extension", "pic.webp", nil, KindImage, "image/webp", nil},
		{
			name:     "no extension sniffs pdf magic",
			filename: "upload",
			data:     []byte("%PDF-1.4 something"),
			wantKind: KindPDF,
			wantMIME: "application/pdf",
		},
		{
			name:     "no extension sniffs plain text",
			filename: "upload",
			data:     []byte("just plain words here"),
			wantKind: KindText,
			wantMIME: "text/plain",
		},
		{
			name:     "no extension sniffs png magic",
			filename: "upload",
			data:     []byte("\x89PNG\r\n\x1a\n rest"),
			wantKind: KindImage,
			wantMIME: "image/png",
		},
		{
			name:     "binary junk rejected",
			filename: "blob.bin",
			data:     []byte{0x00, 0x01, 0x02, 0x03},
			wantErr:  ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, mime, err := DetectKind(tt.filename, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DetectKind() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectKind() error = %v", err)
			}
			if kind != tt.wantKind || mime != tt.wantMIME {
				t.Errorf("DetectKind() = %v, %q, want %v, %q", kind, mime, tt.wantKind, tt.wantMIME)
			}
		})
	}
}

func TestPDFPages_Garbage(t *testing.T) {
	if _, err := PDFPages([]byte("not a pdf at all")); err == nil {
		t.Error("PDFPages() on garbage succeeded")
	}
}
