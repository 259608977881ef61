package models

type Comment struct {
	CommentContent string  `json:"comment_content"`
	UID            string  `json:"uid"`
	UserName       string  `json:"user_name,omitempty"`
	CommentTime    string  `json:"comment_time,omitempty"`
	IPAddress      string  `json:"ip_address,omitempty"`
	ResponseCount  int     `json:"response_count,omitempty"`
	LikeCount      int     `json:"like_count,omitempty"`
	SentimentScore float64 `json:"sentiment_score,omitempty"`
	SentimentLabel string  `json:"sentiment_label,omitempty"`
}

// VideoComments groups every comment found under one video in a
// spreadsheet export, in file order.
type VideoComments struct {
	VideoID  string    `json:"video_id"`
	Industry string    `json:"industry"`
	Keyword  string    `json:"keyword"`
	Comments []Comment `json:"comment_list"`
}

// VideoInfo renders the context line sent to the LLM alongside the
// comment list.
func (v VideoComments) VideoInfo() string {
	return "industry: " + v.Industry + " keyword: " + v.Keyword
}
