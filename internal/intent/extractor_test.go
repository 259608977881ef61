package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentflow/intentflow/internal/llm"
	"github.com/intentflow/intentflow/internal/models"
)

// fakeLLM records the request and plays back a canned structured
// response, or an error.
type fakeLLM struct {
	calls      int
	messages   []models.Message
	systemMsgs []models.Message
	response   models.HighIntentCommentList
	err        error
}

func (f *fakeLLM) AskStructured(_ context.Context, messages, systemMsgs []models.Message, out llm.StructuredOutput, _ float32) error {
	f.calls++
	f.messages = messages
	f.systemMsgs = systemMsgs
	if f.err != nil {
		return f.err
	}
	*(out.(*models.HighIntentCommentList)) = f.response
	return nil
}

func makeComments(n int) []models.Comment {
	comments := make([]models.Comment, 0, n)
	for i := 0; i < n; i++ {
		comments = append(comments, models.Comment{
			CommentContent: fmt.Sprintf("comment %d, how do I book this?", i),
			UID:            fmt.Sprintf("10000000%02d", i),
		})
	}
	return comments
}

func TestExtractHighIntentEndToEnd(t *testing.T) {
	comments := makeComments(10)
	fake := &fakeLLM{response: models.HighIntentCommentList{
		HighIntentComments: []models.HighIntentComment{
			{CommentContent: comments[7].CommentContent, Reason: "asks to book", UID: comments[7].UID},
			{CommentContent: comments[2].CommentContent, Reason: "asks for price", UID: comments[2].UID},
			{CommentContent: comments[5].CommentContent, Reason: "states interest", UID: comments[5].UID},
		},
	}}
	extractor := NewExtractor(fake)

	got, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", comments, 3)
	require.NoError(t, err)

	// Exactly the three named comments, in LLM emission order.
	require.Len(t, got, 3)
	assert.Equal(t, comments[7], got[0])
	assert.Equal(t, comments[2], got[1])
	assert.Equal(t, comments[5], got[2])
}

func TestExtractHighIntentDropsFabricatedUID(t *testing.T) {
	comments := makeComments(10)
	fake := &fakeLLM{response: models.HighIntentCommentList{
		HighIntentComments: []models.HighIntentComment{
			{CommentContent: comments[1].CommentContent, Reason: "asks to book", UID: comments[1].UID},
			{CommentContent: "made up", Reason: "made up", UID: "9999999999"},
		},
	}}
	extractor := NewExtractor(fake)

	got, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", comments, 3)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Less(t, len(got), len(fake.response.HighIntentComments))
	assert.Equal(t, comments[1].UID, got[0].UID)
}

func TestExtractHighIntentDropsInvalidUID(t *testing.T) {
	comments := makeComments(10)
	// A degenerate uid that happens to exist in the batch must still
	// be rejected by validation.
	comments[0].UID = "0000000000"
	fake := &fakeLLM{response: models.HighIntentCommentList{
		HighIntentComments: []models.HighIntentComment{
			{CommentContent: comments[0].CommentContent, Reason: "asks", UID: "0000000000"},
		},
	}}
	extractor := NewExtractor(fake)

	got, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", comments, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractHighIntentTooFewComments(t *testing.T) {
	fake := &fakeLLM{}
	extractor := NewExtractor(fake)

	got, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", makeComments(1), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, fake.calls, "LLM must not be called for an undersized batch")
}

func TestExtractHighIntentClampReachesPrompt(t *testing.T) {
	fake := &fakeLLM{}
	extractor := NewExtractor(fake)

	_, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", makeComments(6), 5)
	require.NoError(t, err)

	require.Len(t, fake.systemMsgs, 1)
	assert.Contains(t, fake.systemMsgs[0].Content, "return: 3")
}

func TestExtractHighIntentBlankCommentsExcludedFromPrompt(t *testing.T) {
	comments := makeComments(6)
	comments = append(comments, models.Comment{CommentContent: "   ", UID: "8888888888"})
	fake := &fakeLLM{}
	extractor := NewExtractor(fake)

	_, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", comments, 2)
	require.NoError(t, err)

	require.Len(t, fake.messages, 1)
	assert.False(t, strings.Contains(fake.messages[0].Content, "8888888888"),
		"filtered comment leaked into the prompt")
}

func TestExtractHighIntentLLMFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("rate limited")}
	extractor := NewExtractor(fake)

	got, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", makeComments(10), 3)
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestExtractHighIntentDuplicateUIDLastWins(t *testing.T) {
	comments := makeComments(6)
	comments[3].UID = comments[0].UID
	comments[3].CommentContent = "the later duplicate"
	fake := &fakeLLM{response: models.HighIntentCommentList{
		HighIntentComments: []models.HighIntentComment{
			{CommentContent: "the later duplicate", Reason: "asks", UID: comments[0].UID},
		},
	}}
	extractor := NewExtractor(fake)

	got, err := extractor.ExtractHighIntent(context.Background(), "industry: X keyword: Y", comments, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "the later duplicate", got[0].CommentContent)
}

func TestClampRequested(t *testing.T) {
	tests := []struct {
		requested, filtered, want int
	}{
		{5, 6, 3},
		{5, 10, 5},
		{5, 11, 5},
		{2, 10, 2},
		{5, 1, 0},
		{5, 0, 0},
		{1, 2, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, clampRequested(tt.requested, tt.filtered),
			"clampRequested(%d, %d)", tt.requested, tt.filtered)
	}
}
