package models

import (
	"fmt"
	"strings"
	"time"
)

// HighIntentComment is one comment the LLM judged likely to convert into
// a business inquiry, together with its justification.
type HighIntentComment struct {
	CommentContent string `json:"comment_content"`
	Reason         string `json:"reason"`
	UID            string `json:"uid"`
}

type HighIntentCommentList struct {
	HighIntentComments []HighIntentComment `json:"high_intent_comment_list"`
}

// highIntentCommentListSchema is the JSON schema text appended to the
// final prompt message when requesting a structured completion.
const highIntentCommentListSchema = `{
  "type": "object",
  "properties": {
    "high_intent_comment_list": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "comment_content": {"type": "string", "description": "The text of the comment"},
          "reason": {"type": "string", "description": "Why this comment shows high intent"},
          "uid": {"type": "string", "description": "The comment's platform UID, copied exactly from the input"}
        },
        "required": ["comment_content", "reason", "uid"]
      }
    }
  },
  "required": ["high_intent_comment_list"]
}`

func (l *HighIntentCommentList) SchemaPrompt() string {
	return highIntentCommentListSchema
}

// Validate enforces the schema's required fields after unmarshalling.
func (l *HighIntentCommentList) Validate() error {
	for i, c := range l.HighIntentComments {
		if strings.TrimSpace(c.UID) == "" {
			return fmt.Errorf("entry %d: missing uid", i)
		}
		if strings.TrimSpace(c.CommentContent) == "" {
			return fmt.Errorf("entry %d: missing comment_content", i)
		}
		if strings.TrimSpace(c.Reason) == "" {
			return fmt.Errorf("entry %d: missing reason", i)
		}
	}
	return nil
}

// HighIntentLeadEvent is published to Kafka after a successful
// extraction so downstream CRM consumers can pick up the leads.
type HighIntentLeadEvent struct {
	Digest      string    `json:"digest"`
	VideoInfo   string    `json:"video_info"`
	Comments    []Comment `json:"comments"`
	ExtractedAt time.Time `json:"extracted_at"`
}
