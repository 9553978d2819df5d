package client

import (
	"context"
	"net/http"
)

type loginRequest struct {
	ClientID string `json:"clientId"`
	SecretID string `json:"secretId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for a session. On success the client's session
// is replaced wholesale; on failure it is left untouched. Credentials are not
// retained.
func (c *Client) Login(ctx context.Context, clientID, secretID string) (Session, error) {
	var s Session
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     loginPath,
		body:     loginRequest{ClientID: clientID, SecretID: secretID},
		noBearer: true,
	}, &s)
	if err != nil {
		return Session{}, err
	}

	c.SetSession(s)
	return s, nil
}

// Refresh trades the current refresh token for a new session. No local check
// is made that a session exists; an empty refresh token is sent as-is and the
// server decides.
//
// Login and Refresh issued concurrently on one client are not sequenced: the
// session ends up holding whichever response arrived last.
func (c *Client) Refresh(ctx context.Context) (Session, error) {
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   tokenPath,
		body:   refreshRequest{RefreshToken: c.Session().RefreshToken},
	}, &s)
	if err != nil {
		return Session{}, err
	}

	c.SetSession(s)
	return s, nil
}
