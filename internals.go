package cryptodb

import (
	"strings"
)

// -----------------------------------------------------------------------------

const (
	pathFieldPrefix = "cryptodb:field:"
	pathSeparator   = ':'
)

// -----------------------------------------------------------------------------

// fieldPath returns the storage key of a field of a record: "cryptodb:field:<record>:<field>".
func fieldPath(recordID string, field string) (string, error) {
	if !isValidPathElement(recordID) || !isValidPathElement(field) {
		return "", ErrInvalidFieldPath
	}

	var sb strings.Builder
	sb.Grow(len(pathFieldPrefix) + len(recordID) + 1 + len(field))
	_, _ = sb.WriteString(pathFieldPrefix)
	_, _ = sb.WriteString(recordID)
	_ = sb.WriteByte(pathSeparator)
	_, _ = sb.WriteString(field)
	return sb.String(), nil
}

func isValidPathElement(s string) bool {
	if len(s) == 0 {
		return false
	}
	for idx := 0; idx < len(s); idx++ {
		if s[idx] == pathSeparator || s[idx] < 0x20 || s[idx] == 0x7F {
			return false
		}
	}
	return true
}
