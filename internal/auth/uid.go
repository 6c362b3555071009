package auth

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// EncodeUID renders a user id for activation and reset links.
func EncodeUID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

// DecodeUID reverses EncodeUID and rejects anything that is not a UUID.
func DecodeUID(uid string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", ErrInvalidToken
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return "", ErrInvalidToken
	}
	return id.String(), nil
}
