package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReferenceID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"hosted jpg", "https://host/cloud/image/upload/v1700000000/abc123.jpg", "abc123", true},
		{"folder in reference", "https://res.cloudinary.com/demo/image/upload/v1/catalog/shirt-blue.png", "catalog/shirt-blue", true},
		{"not a media url", "not-a-cloudinary-url", "", false},
		{"placeholder", "https://via.placeholder.com/200x200", "", false},
		{"no extension", "https://host/cloud/image/upload/v17/abc123", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractReferenceID(tc.url)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
