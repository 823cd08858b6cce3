package domain

// Session is the client-held authentication state of one application instance.
// A token is only ever set together with a user; the store does not enforce it.
type Session struct {
	User     *User     `json:"user"`
	Educator *Educator `json:"educator"`
	Token    string    `json:"-"`
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// UserID returns the current user's id or "".
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	return Session{User: s.User.Clone(), Educator: s.Educator.Clone(), Token: s.Token}
}
