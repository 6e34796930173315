package utils

import "github.com/google/uuid"

// CreateToken returns an opaque token built from two UUIDs. Used for refresh
// tokens, which live in redis rather than being self-describing.
func CreateToken() string {
	firstUUID, err := uuid.NewUUID()
	if err != nil {
		return ""
	}

	secondUUID, err := uuid.NewUUID()
	if err != nil {
		return ""
	}

	return firstUUID.String() + secondUUID.String()
}
