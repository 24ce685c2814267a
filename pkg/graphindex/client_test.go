package graphindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arclinehq/arcline/pkg/titlestore"
)

func TestEntityNodeID(t *testing.T) {
	id := entityNodeID(titlestore.Entity{Text: "Iran", Type: "GPE"})
	assert.Equal(t, "Iran|GPE", id)
}

func TestRecentWindow(t *testing.T) {
	cutoff := recentWindow(2)
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), cutoff, time.Minute)
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, int64(3), toInt64(int64(3)))
	assert.Equal(t, int64(3), toInt64(3))
	assert.Equal(t, int64(0), toInt64("not a number"))
}
