package registration

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`)

// Valid reports whether the form can move on to event selection.
func (d PersonalDetails) Valid() bool {
	return allNonBlank(d.FullName, d.Email, d.Phone) &&
		d.DateOfBirth != nil &&
		emailPattern.MatchString(d.Email)
}

func allNonBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
