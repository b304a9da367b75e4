package push

import (
	"context"
	"time"
)

// Payload is the notification content fanned out to targets. Data is a
// flat string map delivered alongside the visible notification.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// Credential is a short-lived access token scoped to the push gateway.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// Authorizer obtains a gateway credential before a dispatch loop begins.
type Authorizer interface {
	Authorize(ctx context.Context) (*Credential, error)
}

// Gateway delivers one payload to one device token.
type Gateway interface {
	Send(ctx context.Context, credential *Credential, token string, payload Payload) error
}
