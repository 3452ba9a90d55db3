package pop3sf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleViews() []messageView {
	return []messageView{
		{size: 100, uid: "uid-1"},
		{size: 200, uid: "uid-2", deleted: true},
		{size: 300, uid: "uid-3"},
	}
}

func TestBuildListLines_SkipsDeletedKeepsNumbers(t *testing.T) {
	lines := buildListLines(sampleViews())
	assert.Equal(t, []string{"1 100", "3 300"}, lines)
}

func TestBuildUidlLines_SkipsDeletedKeepsNumbers(t *testing.T) {
	lines := buildUidlLines(sampleViews())
	assert.Equal(t, []string{"1 uid-1", "3 uid-3"}, lines)
}

func TestCountAndTotalSizeNonDeleted(t *testing.T) {
	views := sampleViews()
	assert.Equal(t, 2, countNonDeleted(views))
	assert.Equal(t, 400, totalSizeNonDeleted(views))
}

func TestCountAndTotalSize_EmptyMailbox(t *testing.T) {
	assert.Equal(t, 0, countNonDeleted(nil))
	assert.Equal(t, 0, totalSizeNonDeleted(nil))
}

func TestResolveMessageNumber(t *testing.T) {
	views := sampleViews()

	idx, err := resolveMessageNumber(views, 1)
	assert.Nil(t, err)
	assert.Equal(t, 0, idx)

	_, err = resolveMessageNumber(views, 2)
	assert.NotNil(t, err, "deleted message must be refused")
	assert.Equal(t, KindOutOfRange, err.Kind)

	_, err = resolveMessageNumber(views, 0)
	assert.NotNil(t, err, "message number must be 1-based")

	_, err = resolveMessageNumber(views, 99)
	assert.NotNil(t, err, "out-of-range message number must be refused")
}
