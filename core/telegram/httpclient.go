package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/partybot/core/telegram/netutil"
)

const (
	dialTimeout       = 5 * time.Second
	tlsHandshake      = 5 * time.Second
	idleConnTimeout   = 30 * time.Second
	keepAliveInterval = 30 * time.Second
	// Long polling holds getUpdates open for the poll timeout, so the client
	// deadline stays well above it.
	clientTimeout  = 90 * time.Second
	dialRetries    = 2
	dialRetryDelay = time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// Only requests that never left the host are repeated here; everything else
// is left to the sender queue, which knows whether a job is safe to repeat.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   clientTimeout,
		Transport: &dialRetryTransport{base: transport, retries: dialRetries, delay: dialRetryDelay},
	}
}

type dialRetryTransport struct {
	base    http.RoundTripper
	retries int
	delay   time.Duration
}

func (t *dialRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		r := req
		if attempt > 0 {
			r = req.Clone(req.Context())
			if req.Body != nil {
				if req.GetBody == nil {
					return nil, errNoRewind
				}
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				r.Body = body
			}
		}

		resp, err := t.base.RoundTrip(r)
		if err == nil || attempt >= t.retries || !netutil.NotDelivered(err) {
			return resp, err
		}

		timer := time.NewTimer(t.delay * time.Duration(attempt+1))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

var errNoRewind = errors.New("telegram: request body cannot be replayed")
