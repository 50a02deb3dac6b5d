package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// GatewayClient sends one SMS per call through the bulk SMS HTTP API.
type GatewayClient struct {
	url      string
	username string
	password string
	marker   string
	client   *http.Client
}

func NewGatewayClient(apiURL, username, password, successMarker string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		url:      apiURL,
		username: username,
		password: password,
		marker:   successMarker,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send issues GET <api>?username=&password=&numbers=&message= and returns the
// raw response body. The gateway reports rejection in the body, so a non-2xx
// status is the only HTTP-level error.
func (c *GatewayClient) Send(ctx context.Context, phoneNumber, message string) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", errors.Wrap(err, "parse sms api url")
	}
	q := u.Query()
	q.Set("username", c.username)
	q.Set("password", c.password)
	q.Set("numbers", phoneNumber)
	q.Set("message", message)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error would echo the credentials in the query string.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", errors.Wrap(err, "sms gateway request")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(body), errors.Newf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}
	return string(body), nil
}

// Delivered reports whether a gateway response body carries the success code.
func (c *GatewayClient) Delivered(body string) bool {
	return strings.Contains(body, c.marker)
}
