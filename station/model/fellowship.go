package model

import (
	"fmt"
	"strings"
)

// FellowshipNumberLength is fixed; numbers shorter or longer are malformed.
const FellowshipNumberLength = 6

// NormalizeFellowshipNumber uppercases a fellowship number before any lookup
// or server call. QR payloads are opaque and compared verbatim; fellowship
// numbers are not.
func NormalizeFellowshipNumber(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != FellowshipNumberLength {
		return "", fmt.Errorf("fellowship number must be %d characters, got %d", FellowshipNumberLength, len(s))
	}
	return s, nil
}
