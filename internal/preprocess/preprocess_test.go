package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intentflow/intentflow/internal/models"
)

func TestIsValidUID(t *testing.T) {
	tests := []struct {
		name string
		uid  string
		want bool
	}{
		{"minimum length", "12345678", true},
		{"typical uid", "1234567890", true},
		{"maximum length", "1234567890123456789012345678901234567890123456789012345678901234", true},
		{"surrounding whitespace trimmed", "  1234567890  ", true},
		{"too short", "1234", false},
		{"one under minimum", "1234567", false},
		{"too long", "12345678901234567890123456789012345678901234567890123456789012345", false},
		{"all zeros", "00000000", false},
		{"all same digit", "777777777777", false},
		{"contains letter", "12a45678", false},
		{"contains space inside", "1234 5678", false},
		{"empty", "", false},
		{"non ascii digits", "１２３４５６７８", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidUID(tt.uid))
		})
	}
}

func TestFilterComments(t *testing.T) {
	input := []models.Comment{
		{CommentContent: "", UID: "1111111119"},
		{CommentContent: "hi", UID: "1234567890"},
		{CommentContent: "   ", UID: "2222222229"},
	}

	got := FilterComments(input)

	assert.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].CommentContent)
	// Input slice is untouched.
	assert.Len(t, input, 3)
}

func TestFilterCommentsIdempotent(t *testing.T) {
	input := []models.Comment{
		{CommentContent: "first", UID: "1234567890"},
		{CommentContent: "\t\n", UID: "9876543210"},
		{CommentContent: "second", UID: "5678901234"},
	}

	once := FilterComments(input)
	twice := FilterComments(once)

	assert.Equal(t, once, twice)
}

func TestFilterCommentsPreservesOrder(t *testing.T) {
	input := []models.Comment{
		{CommentContent: "a", UID: "1234567890"},
		{CommentContent: "b", UID: "2345678901"},
		{CommentContent: "c", UID: "3456789012"},
	}

	got := FilterComments(input)

	assert.Equal(t, []string{"a", "b", "c"}, []string{
		got[0].CommentContent, got[1].CommentContent, got[2].CommentContent,
	})
}
