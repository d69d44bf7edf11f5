package accounts

import "github.com/google/uuid"

// newTokenID generates the jti claim for signed tokens.
func newTokenID() string {
	return uuid.NewString()
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
