package rwa

import "strings"

// Section is one of the independently signed sub-objects of a credential.
type Section int

const (
	SectionIdentity Section = iota
	SectionCompliance
	SectionCustody
)

// Role names a signing authority.
type Role string

const (
	RoleIdentity   Role = "identity"
	RoleCompliance Role = "compliance"
	RoleCustody    Role = "custody"
	RoleDocument   Role = "document"
)

// DocumentPath is the path reported for the whole-document proof.
const DocumentPath = "/"

var sectionPaths = map[Section]string{
	SectionIdentity:   "/credentialSubject/identity",
	SectionCompliance: "/credentialSubject/compliance",
	SectionCustody:    "/credentialSubject/custody",
}

// Sections returns the sections in signing order.
func Sections() []Section {
	return []Section{SectionIdentity, SectionCompliance, SectionCustody}
}

// Roles returns every role, the document role last.
func Roles() []Role {
	return []Role{RoleIdentity, RoleCompliance, RoleCustody, RoleDocument}
}

// Path returns the slash path of the section inside a credential.
func (s Section) Path() string {
	return sectionPaths[s]
}

// Role returns the authority that signs the section.
func (s Section) Role() Role {
	switch s {
	case SectionIdentity:
		return RoleIdentity
	case SectionCompliance:
		return RoleCompliance
	case SectionCustody:
		return RoleCustody
	default:
		return ""
	}
}

func (s Section) String() string {
	return string(s.Role())
}

// RoleForPath maps a path to its default role by its last segment.
// Paths that name no section have no role.
func RoleForPath(path string) (Role, bool) {
	switch {
	case strings.HasSuffix(path, "/identity"):
		return RoleIdentity, true
	case strings.HasSuffix(path, "/compliance"):
		return RoleCompliance, true
	case strings.HasSuffix(path, "/custody"):
		return RoleCustody, true
	default:
		return "", false
	}
}
