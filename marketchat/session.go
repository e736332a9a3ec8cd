package marketchat

// Session exposes the authenticated identity the socket runs as.
type Session interface {
	UserID() string
	Token() string
}

// StaticSession is a fixed user id and token pair.
type StaticSession struct {
	ID          string
	AccessToken string
}

func (s StaticSession) UserID() string { return s.ID }
func (s StaticSession) Token() string  { return s.AccessToken }

// Authenticated reports whether s carries both a user id and a token.
func Authenticated(s Session) bool {
	return s != nil && s.UserID() != "" && s.Token() != ""
}
