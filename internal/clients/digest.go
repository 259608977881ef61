package clients

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ExtractionDigest identifies one extraction request: same video
// context, same UID set and same requested count hash to the same key
// regardless of comment order.
func ExtractionDigest(videoInfo string, uids []string, requested int) string {
	sorted := append([]string(nil), uids...)
	sort.Strings(sorted)

	raw := fmt.Sprintf("%s:%d:%s", videoInfo, requested, strings.Join(sorted, ","))
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
