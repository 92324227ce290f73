package httprender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ErrInvalidProxy is returned when a proxy address cannot be used.
var ErrInvalidProxy = errors.New("invalid proxy address")

// maxRedirects bounds redirect chains.
const maxRedirects = 10

// NewClient creates the HTTP client the renderer fetches pages with.
//
// proxyAddress is optional. When set ("host:port" or "socks5://host:port")
// every connection is dialed through that SOCKS5 proxy.
func NewClient(proxyAddress string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               nil,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if proxyAddress != "" {
		dialer, err := socksDialer(proxyAddress)
		if err != nil {
			return nil, err
		}
		transport.DialContext = dialer
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func socksDialer(address string) (dialFunc, error) {
	hostPort := address
	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProxy, address)
		}
		if !strings.EqualFold(u.Scheme, "socks5") && !strings.EqualFold(u.Scheme, "socks5h") {
			return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
		}
		hostPort = u.Host
	}

	if _, _, err := net.SplitHostPort(hostPort); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProxy, address)
	}

	d, err := proxy.SOCKS5("tcp", hostPort, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}

	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}, nil
}
