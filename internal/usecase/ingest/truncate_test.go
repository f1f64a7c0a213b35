package ingest_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"news-notifier/internal/usecase/ingest"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "shorter than limit", in: "hello", limit: 10, want: "hello"},
		{name: "exactly limit", in: "hello", limit: 5, want: "hello"},
		{name: "cut with marker", in: "hello world", limit: 8, want: "hello..."},
		{name: "multibyte runes", in: "あいうえおかきくけこ", limit: 5, want: "あい..."},
		{name: "limit smaller than marker", in: "hello", limit: 2, want: "he"},
		{name: "zero limit", in: "hello", limit: 0, want: ""},
		{name: "empty", in: "", limit: 5, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ingest.Truncate(tt.in, tt.limit))
		})
	}
}

func TestTruncate_TitleLimit(t *testing.T) {
	title := strings.Repeat("a", 600)

	got := ingest.Truncate(title, ingest.MaxTitleLength)

	assert.Equal(t, 500, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 497), strings.TrimSuffix(got, "..."))
}
