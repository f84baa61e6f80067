package audio

import (
	"fmt"
	"os"
	"strings"
)

// WrapStartError tags a capture start failure as either a permission
// refusal or a generic capture failure. Neither backend surfaces a typed
// permission error, so this goes by the OS error and message text.
func WrapStartError(err error) error {
	if err == nil {
		return nil
	}
	if os.IsPermission(err) || looksLikePermission(err.Error()) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
}

func looksLikePermission(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "not authorized")
}
