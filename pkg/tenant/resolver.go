package tenant

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	// MaxIdentifierLength keeps identifiers DNS-compatible and bounds work
	// done on hostile input.
	MaxIdentifierLength = 63
)

// identPattern ensures safe identifiers: alphanumeric start, hyphens allowed.
var identPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// Strategy names the resolution method that produced a match. The strategy
// decides the directory lookup: subdomain matches go through FindByDomain,
// header and path matches through FindByName.
type Strategy string

const (
	StrategySubdomain Strategy = "subdomain"
	StrategyHeader    Strategy = "header"
	StrategyPath      Strategy = "path"
)

// Match is a candidate tenant identifier extracted from a request.
// The zero Match means the strategy did not apply.
type Match struct {
	Identifier string
	Strategy   Strategy
}

// Resolver extracts a tenant identifier from an HTTP request. A zero Match
// with nil error means "strategy not applicable, try the next one".
type Resolver func(r *http.Request) (Match, error)

// DefaultReservedSegments are path segments that are API resources, never
// tenant names. The path resolver skips them so /api/users is routed as-is.
var DefaultReservedSegments = []string{
	"users", "invoices", "auth", "public", "tenants", "settings", "system", "health", "admin",
}

func isValidIdentifier(id string) bool {
	return id != "" && len(id) <= MaxIdentifierLength && identPattern.MatchString(id)
}

// NewSubdomainResolver extracts the tenant identifier from the first host
// label. It only applies when the host has more than two dot-separated
// labels and is not a loopback address, so "acme.app.example.com" resolves
// while "example.com" and "localhost:3000" do not. A non-empty baseDomain
// suffix is stripped before splitting so custom ports and environments work.
func NewSubdomainResolver(baseDomain string) Resolver {
	return func(req *http.Request) (Match, error) {
		host := req.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		if host == "localhost" || net.ParseIP(host) != nil {
			return Match{}, nil
		}

		labels := strings.Split(host, ".")
		if len(labels) <= 2 {
			return Match{}, nil
		}

		if baseDomain != "" && strings.HasSuffix(host, "."+baseDomain) {
			host = strings.TrimSuffix(host, "."+baseDomain)
			labels = strings.Split(host, ".")
		}

		sub := labels[0]
		if sub == "" || sub == "www" {
			return Match{}, nil
		}
		if !isValidIdentifier(sub) {
			return Match{}, fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, sub)
		}

		return Match{Identifier: sub, Strategy: StrategySubdomain}, nil
	}
}

// NewHeaderResolver extracts the tenant identifier from an HTTP header.
// Defaults to "X-Tenant-ID" if headerName is empty.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}

	return func(req *http.Request) (Match, error) {
		value := strings.TrimSpace(req.Header.Get(headerName))
		if value == "" {
			return Match{}, nil
		}
		if !isValidIdentifier(value) {
			return Match{}, fmt.Errorf("%w: header value %q", ErrInvalidIdentifier, value)
		}

		return Match{Identifier: value, Strategy: StrategyHeader}, nil
	}
}

// NewPathResolver treats the path segment immediately after apiPrefix as a
// candidate tenant name, unless that segment is reserved for a known API
// resource. The matched segment is later removed from the path by
// StripPathSegment so downstream routing sees a tenant-free path.
func NewPathResolver(apiPrefix string, reserved []string) Resolver {
	if reserved == nil {
		reserved = DefaultReservedSegments
	}
	reservedSet := make(map[string]struct{}, len(reserved))
	for _, s := range reserved {
		reservedSet[s] = struct{}{}
	}

	return func(req *http.Request) (Match, error) {
		rest, ok := strings.CutPrefix(req.URL.Path, apiPrefix+"/")
		if !ok {
			return Match{}, nil
		}

		segment, _, _ := strings.Cut(rest, "/")
		if segment == "" {
			return Match{}, nil
		}
		if _, isReserved := reservedSet[segment]; isReserved {
			return Match{}, nil
		}
		if !isValidIdentifier(segment) {
			return Match{}, fmt.Errorf("%w: path segment %q", ErrInvalidIdentifier, segment)
		}

		return Match{Identifier: segment, Strategy: StrategyPath}, nil
	}
}

// StripPathSegment removes the tenant segment that follows apiPrefix,
// rebuilding the remainder by structured segment removal rather than
// substring arithmetic. "/api/acme/invoices/1" becomes "/api/invoices/1";
// "/api/acme" becomes "/api".
func StripPathSegment(path, apiPrefix, identifier string) string {
	rest, ok := strings.CutPrefix(path, apiPrefix+"/")
	if !ok {
		return path
	}

	segments := strings.Split(rest, "/")
	if len(segments) == 0 || segments[0] != identifier {
		return path
	}

	remainder := strings.Join(segments[1:], "/")
	if remainder == "" {
		return apiPrefix
	}
	return apiPrefix + "/" + remainder
}
