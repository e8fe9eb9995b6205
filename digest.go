package go2n

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// HTTP Digest authentication (RFC 2617) for devices configured to
// challenge instead of accepting Basic credentials. The exchange is a
// two-step flow: the first, unauthenticated request receives a 401 with
// a WWW-Authenticate challenge; the request helper computes the digest
// response from the challenge and retries exactly once.

// digestChallenge holds the fields parsed from a WWW-Authenticate: Digest header
type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string // "MD5" (default) or "MD5-sess"
	qop       string // selected qop option: "auth", or empty for RFC 2069 mode
}

// parseDigestChallenge parses a WWW-Authenticate header value into a
// digestChallenge. Only the Digest scheme with MD5 hashing is
// supported; anything else is a protocol error.
func parseDigestChallenge(header string) (digestChallenge, error) {
	const prefix = "digest "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return digestChallenge{}, NewProtocolError(fmt.Sprintf("unsupported authentication challenge: %q", header), nil)
	}

	params := splitChallengeParams(header[len(prefix):])

	c := digestChallenge{
		realm:     params["realm"],
		nonce:     params["nonce"],
		opaque:    params["opaque"],
		algorithm: params["algorithm"],
	}

	if c.nonce == "" {
		return digestChallenge{}, NewProtocolError("digest challenge missing nonce", nil)
	}

	switch c.algorithm {
	case "", "MD5", "MD5-sess":
	default:
		return digestChallenge{}, NewProtocolError(fmt.Sprintf("unsupported digest algorithm: %q", c.algorithm), nil)
	}

	// The qop directive lists the options the server accepts. Pick
	// "auth" when offered; an empty qop means legacy RFC 2069 mode.
	if qop := params["qop"]; qop != "" {
		selected := ""
		for _, option := range strings.Split(qop, ",") {
			if strings.TrimSpace(option) == "auth" {
				selected = "auth"
				break
			}
		}
		if selected == "" {
			return digestChallenge{}, NewProtocolError(fmt.Sprintf("no supported qop option in challenge: %q", qop), nil)
		}
		c.qop = selected
	}

	return c, nil
}

// splitChallengeParams splits `key="value", key=value, ...` respecting quotes
func splitChallengeParams(s string) map[string]string {
	params := make(map[string]string)

	var parts []string
	inQuotes := false
	start := 0
	for i, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])

	for _, part := range parts {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		params[key] = value
	}

	return params
}

// authorization computes the Authorization header value answering this
// challenge for the given request. A fresh client nonce is generated
// per call.
func (c digestChallenge) authorization(username, password, method, uri string) (string, error) {
	cnonce, err := newCnonce()
	if err != nil {
		return "", NewProtocolError("failed to generate client nonce", err)
	}

	const nc = "00000001"
	response := c.response(username, password, method, uri, cnonce, nc)

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username=%q, realm=%q, nonce=%q, uri=%q, response=%q`,
		username, c.realm, c.nonce, uri, response)
	if c.qop == "auth" {
		// qop and nc are tokens, not quoted strings
		fmt.Fprintf(&b, `, qop=auth, nc=%s, cnonce=%q`, nc, cnonce)
	}
	if c.opaque != "" {
		fmt.Fprintf(&b, `, opaque=%q`, c.opaque)
	}
	if c.algorithm != "" {
		fmt.Fprintf(&b, `, algorithm=%s`, c.algorithm)
	}

	return b.String(), nil
}

// response computes the digest response value per RFC 2617 section 3.2.2
func (c digestChallenge) response(username, password, method, uri, cnonce, nc string) string {
	ha1 := md5Hex(fmt.Sprintf("%s:%s:%s", username, c.realm, password))
	if c.algorithm == "MD5-sess" {
		ha1 = md5Hex(fmt.Sprintf("%s:%s:%s", ha1, c.nonce, cnonce))
	}
	ha2 := md5Hex(fmt.Sprintf("%s:%s", method, uri))

	if c.qop == "auth" {
		return md5Hex(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, c.nonce, nc, cnonce, c.qop, ha2))
	}
	// RFC 2069 compatibility: no qop, nc or cnonce in the response
	return md5Hex(fmt.Sprintf("%s:%s:%s", ha1, c.nonce, ha2))
}

// md5Hex returns the lowercase hex MD5 of s
func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// newCnonce returns a random 16-character hex client nonce
func newCnonce() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
