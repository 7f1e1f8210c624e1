// Package access decides whether a caller may mutate the registry.
package access

import (
	"crypto/subtle"

	platformstrings "secureupdate/pkg/platform/strings"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize allows caller iff it equals admin exactly. An empty admin, as
// before instantiation, denies everyone.
func Authorize(caller, admin string) Decision {
	if admin == "" || caller == "" {
		return Deny
	}
	if subtle.ConstantTimeCompare([]byte(caller), []byte(admin)) == 1 {
		return Allow
	}
	return Deny
}

// Policy evaluates the same rule over a set of admin identities: the admin
// captured at instantiation plus any extra identities configured at startup.
type Policy struct {
	extra []string
}

// NewPolicy builds a policy with additional admin identities. Entries are
// trimmed, blanks dropped and duplicates removed.
func NewPolicy(extraAdmins ...string) *Policy {
	return &Policy{extra: platformstrings.DedupeAndTrim(extraAdmins)}
}

// Authorize allows caller when it matches the stored admin or any extra
// admin identity.
func (p *Policy) Authorize(caller, admin string) Decision {
	if Authorize(caller, admin) == Allow {
		return Allow
	}
	if p == nil {
		return Deny
	}
	for _, a := range p.extra {
		if Authorize(caller, a) == Allow {
			return Allow
		}
	}
	return Deny
}
