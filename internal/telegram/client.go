package telegram

import (
	"net/http"
	"time"
)

// pollGrace is added to the long-poll timeout so the HTTP client never cuts
// a getUpdates call that Telegram is still allowed to hold open.
const pollGrace = 10 * time.Second

// NewHTTPClient returns the HTTP client used for Bot API calls.
func NewHTTPClient(pollTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: pollTimeout + pollGrace,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
