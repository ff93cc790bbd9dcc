package server

import "github.com/gin-gonic/gin"

// Session is the per-request view of the signed-in player. PlayerID is the
// opaque identifier the external auth provider issued: it is populated once
// when the session cookie is read and only read afterwards. The stats
// pipeline never consults it.
type Session struct {
	PlayerID string
}

const (
	sessionKey   = "session"
	playerCookie = "aoeboard_player"
)

// Sessions resolves the session cookie into a Session value on the context.
// Requests without a cookie carry an anonymous session.
func Sessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess Session
		if id, err := c.Cookie(playerCookie); err == nil {
			sess.PlayerID = id
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session resolved by Sessions.
func SessionFrom(c *gin.Context) Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(Session); ok {
			return sess
		}
	}
	return Session{}
}
