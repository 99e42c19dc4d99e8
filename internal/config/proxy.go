package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseProxy splits a proxy given as "[socks5://][user[:password]@]host:port"
// into its address and credentials. Errors never echo the input, which may
// carry a password.
func ParseProxy(raw string) (addr, user, password string, err error) {
	if raw == "" {
		return "", "", "", nil
	}
	if !strings.Contains(raw, "://") {
		raw = "socks5://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", ErrInvalidProxy
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return "", "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return "", "", "", fmt.Errorf("%w: expected host:port", ErrInvalidProxy)
	}

	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}
	return u.Host, user, password, nil
}
