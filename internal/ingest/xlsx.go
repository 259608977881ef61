package ingest

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/intentflow/intentflow/internal/models"
)

// Header labels of the platform's comment export. The sheet is produced
// by an upstream tool, so the labels are fixed and not localized here.
const (
	colVideoID       = "视频ID"
	colIndustry      = "行业"
	colKeyword       = "关键字"
	colContent       = "评论内容"
	colCommentTime   = "创建时间"
	colIPAddress     = "IP未知"
	colResponseCount = "回复数"
	colLikeCount     = "点赞数"
	colUID           = "UID"
)

var requiredColumns = []string{
	colVideoID, colIndustry, colKeyword, colContent,
	colCommentTime, colIPAddress, colResponseCount, colLikeCount, colUID,
}

// ExtractCommentsByVideoID reads one comment-export workbook and groups
// its rows into per-video comment batches, preserving first-appearance
// order of the videos and file order of the comments.
func ExtractCommentsByVideoID(path string) ([]models.VideoComments, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	colIndex, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var (
		groups = make(map[string]int)
		videos []models.VideoComments
	)
	for i, row := range rows[1:] {
		videoID := cell(row, colIndex[colVideoID])
		if videoID == "" {
			slog.Warn("[Ingest] Skipping row without video id", slog.Int("row", i+2))
			continue
		}

		comment := models.Comment{
			CommentContent: cell(row, colIndex[colContent]),
			CommentTime:    cell(row, colIndex[colCommentTime]),
			IPAddress:      cell(row, colIndex[colIPAddress]),
			ResponseCount:  cellInt(row, colIndex[colResponseCount]),
			LikeCount:      cellInt(row, colIndex[colLikeCount]),
			UID:            cell(row, colIndex[colUID]),
		}

		idx, seen := groups[videoID]
		if !seen {
			videos = append(videos, models.VideoComments{
				VideoID:  videoID,
				Industry: cell(row, colIndex[colIndustry]),
				Keyword:  cell(row, colIndex[colKeyword]),
			})
			idx = len(videos) - 1
			groups[videoID] = idx
		}
		videos[idx].Comments = append(videos[idx].Comments, comment)
	}

	slog.Info("[Ingest] Workbook parsed",
		slog.String("path", path),
		slog.Int("videos", len(videos)))
	return videos, nil
}

func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, label := range header {
		index[strings.TrimSpace(label)] = i
	}
	for _, required := range requiredColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q in header", required)
		}
	}
	return index, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellInt(row []string, i int) int {
	n, err := strconv.Atoi(cell(row, i))
	if err != nil {
		return 0
	}
	return n
}
