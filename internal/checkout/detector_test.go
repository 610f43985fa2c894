package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLPatternDetector_Completed(t *testing.T) {
	detector := NewURLPatternDetector(DefaultPatterns()...)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{
			name: "success redirect",
			url:  "https://pay.example.com/checkout/success?ref=abc",
			want: true,
		},
		{
			name: "completed redirect",
			url:  "https://pay.example.com/tx/completed",
			want: true,
		},
		{
			name: "callback redirect",
			url:  "https://backend.example.com/callback?reference=xyz",
			want: true,
		},
		{
			name: "return redirect",
			url:  "https://backend.example.com/return",
			want: true,
		},
		{
			name: "checkout page itself",
			url:  "https://pay.example.com/checkout/abc123",
			want: false,
		},
		{
			name: "empty url",
			url:  "",
			want: false,
		},
		{
			name: "pattern inside query string still matches",
			url:  "https://pay.example.com/page?next=/success",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Completed(tt.url))
		})
	}
}

func TestURLPatternDetector_CustomPatterns(t *testing.T) {
	detector := NewURLPatternDetector("/merci")

	assert.True(t, detector.Completed("https://pay.example.com/merci"))
	assert.False(t, detector.Completed("https://pay.example.com/success"))
}
