package templates

import (
	"fmt"

	"github.com/louisbranch/pharmadesk/internal/platform/i18n"
)

// Localizer is the printer components translate through.
type Localizer = i18n.Localizer

// T translates key through loc. Without a localizer the key is used as the
// format string.
func T(loc Localizer, key string, args ...any) string {
	if loc == nil && len(args) > 0 {
		return fmt.Sprintf(key, args...)
	}
	return i18n.T(loc, key, args...)
}
