package fields

import (
	"encoding/json"
	"slices"
)

// Role is the party a field is assigned to.
type Role string

// Signer roles.
const (
	RoleFirstParty       Role = "first_party"
	RoleSecondFirstParty Role = "second_first_party"
	RoleCounterparty     Role = "counterparty"
	RoleThirdParty       Role = "third_party"
)

var roles = []Role{
	RoleFirstParty,
	RoleSecondFirstParty,
	RoleCounterparty,
	RoleThirdParty,
}

// Roles returns the valid signer roles.
func Roles() []Role {
	return roles
}

// ParseRole validates s as a known signer role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !slices.Contains(roles, r) {
		return "", ErrInvalidRole
	}
	return r, nil
}

// UnmarshalJSON rejects unknown roles. An empty string decodes to the zero
// Role so unassigned values round-trip; use sites validate assignment.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*r = ""
		return nil
	}
	v, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Style is the on-screen treatment for fields assigned to a role.
type Style struct {
	Border string `json:"border"`
	Fill   string `json:"fill"`
	Text   string `json:"text"`
	Label  string `json:"label"`
}

var styles = map[Role]Style{
	RoleFirstParty: {
		Border: "#2563eb",
		Fill:   "rgba(37, 99, 235, 0.08)",
		Text:   "#1d4ed8",
		Label:  "First Party",
	},
	RoleSecondFirstParty: {
		Border: "#7c3aed",
		Fill:   "rgba(124, 58, 237, 0.08)",
		Text:   "#6d28d9",
		Label:  "Second First Party",
	},
	RoleCounterparty: {
		Border: "#16a34a",
		Fill:   "rgba(22, 163, 74, 0.08)",
		Text:   "#15803d",
		Label:  "Counterparty",
	},
	RoleThirdParty: {
		Border: "#ea580c",
		Fill:   "rgba(234, 88, 12, 0.08)",
		Text:   "#c2410c",
		Label:  "Third Party",
	},
}

var neutralStyle = Style{
	Border: "#6b7280",
	Fill:   "rgba(107, 114, 128, 0.08)",
	Text:   "#374151",
	Label:  "Signer",
}

// StyleFor returns the style for r, or a neutral style for unassigned fields.
func StyleFor(r Role) Style {
	if s, ok := styles[r]; ok {
		return s
	}
	return neutralStyle
}
