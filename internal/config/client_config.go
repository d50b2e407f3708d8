package config

import "time"

type ClientConfig interface {
	GetHTTPTimeout() time.Duration
	GetLoginBoundary() string
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetHTTPTimeout() time.Duration {
	return 30 * time.Second
}

// GetLoginBoundary is the unauthenticated entry point users are sent to when a
// session ends. The CLI has no routes, so this is the path reported in the
// re-login hint; library consumers embedding the client map it onto their own
// navigation.
func (Client) GetLoginBoundary() string {
	return "/login"
}
