package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "comments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var exportHeader = []any{
	"视频ID", "行业", "关键字", "评论内容", "创建时间", "IP未知", "回复数", "点赞数", "UID",
}

func TestExtractCommentsByVideoID(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		exportHeader,
		{"v100", "education", "math tutoring", "how much per class?", "2025-06-01 10:00", "Beijing", "2", "15", "1234567890"},
		{"v200", "fitness", "yoga", "nice video", "2025-06-01 11:00", "Shanghai", "0", "3", "2345678901"},
		{"v100", "education", "math tutoring", "is this for grade 3?", "2025-06-01 12:00", "Guangdong", "1", "8", "3456789012"},
	})

	videos, err := ExtractCommentsByVideoID(path)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	// First-appearance order of videos, file order of their comments.
	assert.Equal(t, "v100", videos[0].VideoID)
	assert.Equal(t, "education", videos[0].Industry)
	assert.Equal(t, "math tutoring", videos[0].Keyword)
	require.Len(t, videos[0].Comments, 2)
	assert.Equal(t, "how much per class?", videos[0].Comments[0].CommentContent)
	assert.Equal(t, "is this for grade 3?", videos[0].Comments[1].CommentContent)
	assert.Equal(t, 15, videos[0].Comments[0].LikeCount)
	assert.Equal(t, 2, videos[0].Comments[0].ResponseCount)
	assert.Equal(t, "1234567890", videos[0].Comments[0].UID)

	assert.Equal(t, "v200", videos[1].VideoID)
	require.Len(t, videos[1].Comments, 1)
	assert.Equal(t, "nice video", videos[1].Comments[0].CommentContent)
}

func TestExtractCommentsByVideoIDSkipsBlankVideoID(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		exportHeader,
		{"", "education", "math", "orphan row", "2025-06-01", "Beijing", "0", "0", "1234567890"},
		{"v100", "education", "math", "kept row", "2025-06-01", "Beijing", "0", "0", "2345678901"},
	})

	videos, err := ExtractCommentsByVideoID(path)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.Len(t, videos[0].Comments, 1)
	assert.Equal(t, "kept row", videos[0].Comments[0].CommentContent)
}

func TestExtractCommentsByVideoIDMissingColumn(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"视频ID", "行业", "关键字", "评论内容"},
		{"v100", "education", "math", "hello"},
	})

	_, err := ExtractCommentsByVideoID(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestExtractCommentsByVideoIDNonNumericCounts(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		exportHeader,
		{"v100", "education", "math", "hello", "2025-06-01", "Beijing", "n/a", "-", "1234567890"},
	})

	videos, err := ExtractCommentsByVideoID(path)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Zero(t, videos[0].Comments[0].ResponseCount)
	assert.Zero(t, videos[0].Comments[0].LikeCount)
}
