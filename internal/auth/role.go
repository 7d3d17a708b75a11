// Package auth implements the three-role access gate: PIN login, the role
// session cookie, route-level gating and field-level redaction checks.
package auth

// Role is a capability level, not an identity. The cookie value is the role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFred   Role = "fred"
	RoleSylvie Role = "sylvie"

	// RoleNone marks an unauthenticated caller.
	RoleNone Role = ""
)

// Secrets holds the configured login PIN per role. An empty secret disables
// that role's login; all three empty means the gate runs in open mode.
type Secrets struct {
	Admin  string
	Fred   string
	Sylvie string
}

// Enabled reports whether any gating secret is configured. When false the
// deployment runs open (trusted/dev environments).
func (s Secrets) Enabled() bool {
	return s.Admin != "" || s.Fred != "" || s.Sylvie != ""
}

// ResolveRole matches a submitted PIN against the configured secrets.
// Matching is exact, in fixed priority order (admin, fred, sylvie), so a
// misconfigured duplicate secret resolves to admin. An empty PIN or no match
// yields RoleNone. A role with no configured secret can never be resolved.
func ResolveRole(pin string, secrets Secrets) Role {
	if pin == "" {
		return RoleNone
	}
	switch {
	case secrets.Admin != "" && pin == secrets.Admin:
		return RoleAdmin
	case secrets.Fred != "" && pin == secrets.Fred:
		return RoleFred
	case secrets.Sylvie != "" && pin == secrets.Sylvie:
		return RoleSylvie
	}
	return RoleNone
}

// Known reports whether r is one of the three valid roles.
func (r Role) Known() bool {
	return r == RoleAdmin || r == RoleFred || r == RoleSylvie
}

// CanSeeFred reports whether Fred's ledger and share figures are visible to
// the role. Sylvie sees neither the /fredledger routes nor Fred's column on
// shared views.
func CanSeeFred(r Role) bool {
	return r == RoleAdmin || r == RoleFred
}
