package preprocess

import (
	"regexp"
	"strings"

	"github.com/intentflow/intentflow/internal/models"
)

var uidPattern = regexp.MustCompile(`^[0-9]{8,64}$`)

// IsValidUID reports whether a candidate string is a well-formed
// platform UID: all ASCII digits, 8 to 64 characters after trimming,
// and not a single repeated digit ("00000000" and friends are
// placeholders, not IDs).
func IsValidUID(uid string) bool {
	uid = strings.TrimSpace(uid)
	if !uidPattern.MatchString(uid) {
		return false
	}
	return strings.Count(uid, uid[:1]) != len(uid)
}

// FilterComments drops comments whose content is blank after trimming.
// Order-preserving and non-mutating; dropped records are not an error.
func FilterComments(comments []models.Comment) []models.Comment {
	filtered := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.CommentContent) != "" {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
