package tools

// Policy decides which tools a character's loop may call. Ported from
// the teacher's allow/deny policy almost verbatim -- the default-deny
// behavior and explicit-deny-wins precedence carry over unchanged.
type Policy struct {
	Allowed  map[string]bool
	Denied   map[string]bool
	AllowAll bool
	DenyAll  bool
}

// AllowAllPolicy permits every registered tool except explicit denials.
func AllowAllPolicy() *Policy {
	return &Policy{Allowed: map[string]bool{}, Denied: map[string]bool{}, AllowAll: true}
}

// Allow explicitly allows a tool.
func (p *Policy) Allow(name string) *Policy {
	p.Allowed[name] = true
	delete(p.Denied, name)
	return p
}

// Deny explicitly denies a tool.
func (p *Policy) Deny(name string) *Policy {
	p.Denied[name] = true
	delete(p.Allowed, name)
	return p
}

// IsAllowed reports whether name may be executed under this policy.
func (p *Policy) IsAllowed(name string) bool {
	if p.Denied[name] {
		return false
	}
	if p.Allowed[name] {
		return true
	}
	if p.DenyAll {
		return false
	}
	return p.AllowAll
}
