package domain

import (
	"fmt"
)

// APIVersion names a route generation. Access tokens record the version they
// were minted under so older routes can refuse tokens from newer clients.
type APIVersion string

const (
	APIVersionV1 APIVersion = "v1"
)

var versionOrder = map[APIVersion]int{
	APIVersionV1: 1,
}

// ParseAPIVersion returns an error for versions this build does not serve.
func ParseAPIVersion(s string) (APIVersion, error) {
	v := APIVersion(s)
	if _, ok := versionOrder[v]; !ok {
		return "", fmt.Errorf("unknown API version: %s", s)
	}
	return v, nil
}

func (v APIVersion) String() string {
	return string(v)
}

// IsAtLeast reports whether v is the same as or newer than other.
// Unknown versions rank below every known version.
func (v APIVersion) IsAtLeast(other APIVersion) bool {
	thisOrder, thisOK := versionOrder[v]
	otherOrder, otherOK := versionOrder[other]
	if !thisOK {
		return false
	}
	if !otherOK {
		return true
	}
	return thisOrder >= otherOrder
}

// DefaultVersion is stamped on newly issued tokens.
func DefaultVersion() APIVersion {
	return APIVersionV1
}
