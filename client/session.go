package client

import "time"

// Session is the token triple returned by login and refresh.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpireTime   int64  `json:"expireTime"`
}

// millisThreshold separates unix seconds from unix milliseconds: as seconds
// it lies in the year 33658, as milliseconds in 2001.
const millisThreshold = 1_000_000_000_000

// ExpiresAt interprets ExpireTime as unix seconds, or as unix milliseconds
// when the value is too large to be seconds.
func (s Session) ExpiresAt() time.Time {
	switch {
	case s.ExpireTime <= 0:
		return time.Time{}
	case s.ExpireTime >= millisThreshold:
		return time.UnixMilli(s.ExpireTime)
	default:
		return time.Unix(s.ExpireTime, 0)
	}
}

// Expired reports whether the session has no token or its expiry has passed.
func (s Session) Expired(now time.Time) bool {
	if s.Token == "" {
		return true
	}
	exp := s.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession replaces the current session, e.g. with one the caller stored.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// IsLoggedIn reports whether a token is held. It does not check expiry.
func (c *Client) IsLoggedIn() bool {
	return c.Session().Token != ""
}

func (c *Client) token() string {
	return c.Session().Token
}
