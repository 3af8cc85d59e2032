package redis

import "strings"

const keyNamespace = "distro"

// Key families. Every key is "distro:<family>:<parts...>".
const (
	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familyLock        = "lock"
	familyRevoked     = "revoked_token"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return key(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return key(familyRateLimit, scope)
}

func (c *Client) LockKey(name string) string {
	return key(familyLock, name)
}

// RevokedTokenKey marks a JWT id as logged out.
func (c *Client) RevokedTokenKey(jti string) string {
	return key(familyRevoked, jti)
}

// key joins non-empty parts after the namespace.
func key(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(family)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}
