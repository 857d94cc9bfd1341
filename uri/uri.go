// Package uri parses and builds the URIs Hermes hands out, e.g.
// hunreal://content/Game/Spells/Fireball?edit.
//
// The host of a URI names an endpoint; everything after it is passed to that endpoint.
// On the wire between the helper and the server only "endpoint/sub/path?query" travels.
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxMessageSize bounds a relayed message: the longest path an OS allows (32k) plus room for scheme, host and query.
const MaxMessageSize = 32*1024 + 256

var (
	ErrNoScheme = errors.New("uri has no scheme")
	ErrNoHost   = errors.New("uri has no hostname")
)

// ErrMessageTooLarge is returned for messages over MaxMessageSize. No server accepts them.
var ErrMessageTooLarge = errors.New("message too large")

type (
	// Request is a message split into the pieces an endpoint handler receives.
	Request struct {
		Endpoint string
		Path     string
		Query    map[string]string
	}
)

// Parse parses an absolute Hermes URI. The scheme and host are both required.
func Parse(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("could not parse scheme from %s: %w", raw, ErrNoScheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("could not parse hostname from %s: %w", raw, ErrNoHost)
	}
	return u, nil
}

// Message returns the part of u that is relayed to a running server.
func Message(u *url.URL) string {
	msg := u.Host + u.EscapedPath()
	if u.RawQuery != "" {
		msg += "?" + u.RawQuery
	} else if u.ForceQuery {
		msg += "?"
	}
	return msg
}

// ParsePath splits a relayed message. The first path component is the endpoint, the rest up to '?'
// is the URL-decoded sub-path (empty or starting with '/'). Query keys are lower-cased.
func ParsePath(full string) Request {
	pathPart, rawQuery, hasQuery := strings.Cut(strings.TrimPrefix(full, "/"), "?")

	endpoint, path := pathPart, ""
	if idx := strings.IndexByte(pathPart, '/'); idx >= 0 {
		endpoint, path = pathPart[:idx], pathPart[idx:]
	}

	req := Request{
		Endpoint: endpoint,
		Path:     decodePath(path),
		Query:    make(map[string]string),
	}
	if !hasQuery {
		return req
	}

	for _, param := range strings.Split(rawQuery, "&") {
		if param == "" {
			continue
		}
		// support both foo=bar and just foo, the latter maps to an empty string
		key, value, _ := strings.Cut(param, "=")
		req.Query[strings.ToLower(decodeQuery(key))] = decodeQuery(value)
	}
	return req
}

// Has reports whether the query carries key (case-insensitive).
func (r Request) Has(key string) bool {
	_, ok := r.Query[strings.ToLower(key)]
	return ok
}

// Build returns scheme://endpoint/path with a single leading slash removed from path.
// An empty scheme means nothing is registered yet and yields "".
func Build(scheme, endpoint, path string) string {
	if scheme == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/%s", scheme, endpoint, strings.TrimPrefix(path, "/"))
}

// JoinURIs builds one URI per distinct path, appends suffix to each and joins them with newlines.
func JoinURIs(scheme, endpoint string, paths []string, suffix string) string {
	seen := make(map[string]bool, len(paths))
	var lines []string
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		lines = append(lines, Build(scheme, endpoint, p)+suffix)
	}
	return strings.Join(lines, "\n")
}

// malformed escapes are left as they are
func decodePath(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

func decodeQuery(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}
