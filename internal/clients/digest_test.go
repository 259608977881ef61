package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractionDigestOrderInsensitive(t *testing.T) {
	a := ExtractionDigest("industry: X keyword: Y", []string{"1111111119", "2222222229"}, 5)
	b := ExtractionDigest("industry: X keyword: Y", []string{"2222222229", "1111111119"}, 5)
	assert.Equal(t, a, b)
}

func TestExtractionDigestDistinguishesInputs(t *testing.T) {
	base := ExtractionDigest("industry: X keyword: Y", []string{"1111111119"}, 5)

	otherInfo := ExtractionDigest("industry: X keyword: Z", []string{"1111111119"}, 5)
	assert.NotEqual(t, base, otherInfo)

	otherCount := ExtractionDigest("industry: X keyword: Y", []string{"1111111119"}, 3)
	assert.NotEqual(t, base, otherCount)

	otherUIDs := ExtractionDigest("industry: X keyword: Y", []string{"1111111119", "2222222229"}, 5)
	assert.NotEqual(t, base, otherUIDs)
}

func TestExtractionDigestDoesNotReorderInput(t *testing.T) {
	uids := []string{"2222222229", "1111111119"}
	ExtractionDigest("industry: X keyword: Y", uids, 5)
	assert.Equal(t, []string{"2222222229", "1111111119"}, uids)
}
