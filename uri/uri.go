// Package uri parses the authority-form addresses the sync protocol and
// its discovery mechanisms exchange (e.g. "tcp://192.0.2.1:22000",
// "https://discovery.example/v2", "relay://relay.example:443/?id=...").
//
// Unlike net/url, a uri.URI always carries an explicit port: when the
// input omits one, it is inferred from the scheme. Inputs containing
// unescaped non-ASCII characters are rejected rather than silently
// percent-decoded, matching the teacher's preference (directory.fetch,
// link.Handshake) for failing loudly on malformed network input instead
// of guessing.
package uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/basiliscos/syncspirit-go/errs"
)

// defaultPorts maps a scheme to the port assumed when the input omits
// one explicitly. Schemes not listed here require an explicit port.
var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
}

// URI is a parsed authority-form address with a mandatory port.
type URI struct {
	Scheme   string
	Host     string
	Port     int
	Path     string
	Query    string
	Fragment string
}

// Parse parses s into a URI, inferring the port from the scheme when
// s omits one. Returns *errs.Error{Kind: KindMalformedUrl} on any
// failure, including inputs with unescaped non-ASCII characters or a
// scheme with no default port and no explicit one.
func Parse(s string) (URI, error) {
	const op = "uri.Parse"

	if !isASCII(s) {
		return URI{}, errs.New(op, errs.KindMalformedUrl, fmt.Errorf("non-ASCII characters must be percent-encoded"))
	}

	u, err := url.Parse(s)
	if err != nil {
		return URI{}, errs.New(op, errs.KindMalformedUrl, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return URI{}, errs.New(op, errs.KindMalformedUrl, fmt.Errorf("missing scheme or host in %q", s))
	}

	host := u.Hostname()
	portStr := u.Port()

	var port int
	if portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return URI{}, errs.New(op, errs.KindMalformedUrl, fmt.Errorf("invalid port %q", portStr))
		}
	} else {
		p, ok := defaultPorts[strings.ToLower(u.Scheme)]
		if !ok {
			return URI{}, errs.New(op, errs.KindMalformedUrl, fmt.Errorf("scheme %q requires an explicit port", u.Scheme))
		}
		port = p
	}

	return URI{
		Scheme:   u.Scheme,
		Host:     host,
		Port:     port,
		Path:     u.Path,
		Query:    u.RawQuery,
		Fragment: u.Fragment,
	}, nil
}

// IsParsable reports whether s can be parsed without error; callers
// that only need a yes/no answer (e.g. filtering a candidate address
// list) can use this instead of discarding the Parse error.
func IsParsable(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// String renders the URI back into authority form. The port is always
// included even if it matched the scheme's default, since callers that
// round-trip addresses through Parse need a stable representation.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(u.Port))
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// Equal reports whether u and other denote the same address.
func (u URI) Equal(other URI) bool {
	return u.String() == other.String()
}

// Dedup returns uris with exact string-duplicate entries removed,
// preserving the first occurrence's order. Address lists carried in
// announce records and cluster-config messages are not guaranteed
// duplicate-free by their producers.
func Dedup(uris []URI) []URI {
	seen := make(map[string]struct{}, len(uris))
	out := make([]URI, 0, len(uris))
	for _, u := range uris {
		key := u.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}
