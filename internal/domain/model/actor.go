package model

// Actor identifies who is acting on a cart or order: an authenticated user, an
// anonymous browser session, or both when a guest has just signed in.
type Actor struct {
	UserID     *int64
	SessionKey string
}

// Authenticated reports whether the identity provider verified the caller.
func (a Actor) Authenticated() bool {
	return a.UserID != nil
}

// Owns reports whether the actor owns a record with the given owner fields.
func (a Actor) Owns(userID *int64, sessionKey string) bool {
	if a.UserID != nil && userID != nil {
		return *a.UserID == *userID
	}
	if userID != nil {
		return false
	}
	return sessionKey != "" && a.SessionKey == sessionKey
}
