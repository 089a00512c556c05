package enums

// ProfileRole is the role column on profiles.
type ProfileRole string

const (
	ProfileRoleClient ProfileRole = "client"
	ProfileRoleAdmin  ProfileRole = "admin"
)

func (r ProfileRole) IsAdmin() bool {
	return r == ProfileRoleAdmin
}
