package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips all HTML from user-supplied text and trims surrounding
// whitespace. Applied to display names, bios, and message content before
// they are persisted or fanned out.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
