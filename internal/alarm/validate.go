package alarm

import (
	"fmt"
	"regexp"
)

var groupCodePattern = regexp.MustCompile(`^[0-9]{9}$`)

// ValidateGroupCode checks that code is exactly nine ASCII digits.
func ValidateGroupCode(code string) error {
	if !groupCodePattern.MatchString(code) {
		return fmt.Errorf("%w: got %q", ErrInvalidGroupCode, code)
	}
	return nil
}
