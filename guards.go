package accounts

// Access guards gate operations on the caller's session state. They return
// typed errors so HTTP and command layers can translate them into the right
// redirect or status code.

// RequireAuthenticated fails when there is no usable session.
func RequireAuthenticated(session Session) error {
	if session == nil || session.GetUserID() == "" {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAnonymous fails when a session is already established. Login and
// registration surfaces use it to bounce signed-in users.
func RequireAnonymous(session Session) error {
	if session != nil && session.GetUserID() != "" {
		return ErrAlreadyAuthenticated
	}
	return nil
}

// RequireRoles fails unless the session holds at least one of the given
// roles. An authenticated session with the wrong role gets ErrNotAuthorized,
// never ErrUnauthenticated.
func RequireRoles(session Session, roles ...UserRole) error {
	if err := RequireAuthenticated(session); err != nil {
		return err
	}

	for _, role := range roles {
		if session.HasRole(role) {
			return nil
		}
	}

	return ErrNotAuthorized
}
