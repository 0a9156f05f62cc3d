package storage_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/acro-planner/backend/pkg/storage"
)

func TestValidateMediaFileType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		expected    bool
	}{
		{
			name:        "jpeg by content type",
			contentType: "image/jpeg",
			filename:    "photo.bin",
			expected:    true,
		},
		{
			name:        "png by extension only",
			contentType: "",
			filename:    "diagram.png",
			expected:    true,
		},
		{
			name:        "mp4 demo video",
			contentType: "video/mp4",
			filename:    "demo.mp4",
			expected:    true,
		},
		{
			name:        "mixed case content type",
			contentType: "Image/PNG",
			filename:    "x",
			expected:    true,
		},
		{
			name:        "executable rejected",
			contentType: "application/octet-stream",
			filename:    "malware.exe",
			expected:    false,
		},
		{
			name:        "nothing to go on",
			contentType: "",
			filename:    "noextension",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(storage.ValidateMediaFileType(tt.contentType, tt.filename), qt.Equals, tt.expected)
		})
	}
}

func TestContentTypeForFilename(t *testing.T) {
	c := qt.New(t)

	c.Assert(storage.ContentTypeForFilename("pose.jpg"), qt.Equals, "image/jpeg")
	c.Assert(storage.ContentTypeForFilename("POSE.WEBP"), qt.Equals, "image/webp")
	c.Assert(storage.ContentTypeForFilename("unknown.xyz"), qt.Equals, "application/octet-stream")
}

func TestMediaKey(t *testing.T) {
	c := qt.New(t)

	c.Assert(
		storage.MediaKey("capabilities", "01ARZ3NDEKTSV4RRFFQ69G5FAV", "handstand.jpg"),
		qt.Equals, "media/capabilities/01ARZ3NDEKTSV4RRFFQ69G5FAV/handstand.jpg")

	// Path components in the filename are stripped.
	c.Assert(
		storage.MediaKey("hosts", "abc", "../../etc/passwd"),
		qt.Equals, "media/hosts/abc/passwd")
}
