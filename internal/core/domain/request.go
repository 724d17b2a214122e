package domain

import "strings"

// LatestKeyword requests the greatest available version.
const LatestKeyword = "latest"

// RequestKind classifies a version request.
type RequestKind uint8

const (
	// RequestUnspecified picks the greatest of installed, local and remote versions.
	RequestUnspecified RequestKind = iota
	// RequestLatest behaves like RequestUnspecified for the policy side in effect.
	RequestLatest
	// RequestLiteral asks for one exact version.
	RequestLiteral
)

// Request is an explicit version request coming from the environment or the studio policy.
type Request struct {
	Kind    RequestKind
	Version Version
}

// ParseRequest maps "" to an unspecified request, "latest" to a latest request,
// and anything else to a literal version.
func ParseRequest(s string) (Request, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Request{Kind: RequestUnspecified}, nil
	case strings.EqualFold(s, LatestKeyword):
		return Request{Kind: RequestLatest}, nil
	}

	v, err := ParseVersion(s)
	if err != nil {
		return Request{}, err
	}
	return Request{Kind: RequestLiteral, Version: v}, nil
}

// LiteralRequest asks for v.
func LiteralRequest(v Version) Request {
	return Request{Kind: RequestLiteral, Version: v}
}

// String returns the request as it would be written in the policy.
func (r Request) String() string {
	switch r.Kind {
	case RequestLatest:
		return LatestKeyword
	case RequestLiteral:
		return r.Version.String()
	default:
		return ""
	}
}
