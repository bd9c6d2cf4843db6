package ids

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a prefixed random identifier such as "sess_3f2a...".
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return raw
	}
	return prefix + "_" + raw
}
