package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	id := New("sess")
	assert.True(t, strings.HasPrefix(id, "sess_"))
	assert.Len(t, id, len("sess_")+32)
	assert.NotEqual(t, id, New("sess"))
	assert.Len(t, New(""), 32)
}
