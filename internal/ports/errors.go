package ports

import "errors"

var (
	// ErrConfiguration is returned at construction time, before any network activity.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstreamRequest covers transport failures, timeouts and non-2xx replies.
	ErrUpstreamRequest = errors.New("upstream request failed")
	// ErrUpstreamResponse means the reply had no choices[0].message.content.
	ErrUpstreamResponse = errors.New("upstream response malformed")
)
