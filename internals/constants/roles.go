package constants

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

const (
	ErrInsufficientPermissions = "Insufficient permissions"
	ErrAccessDenied            = "Access denied"
)

var (
	AllRoles = []string{
		RoleAdmin,
		RoleInstructor,
		RoleStudent,
	}

	// roles a user may pick when signing up; admin is granted by another admin
	SelfRegisterRoles = []string{
		RoleStudent,
		RoleInstructor,
	}

	InstructorAndAbove = []string{
		RoleInstructor,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsStaff(role string) bool {
	return role == RoleAdmin || role == RoleInstructor
}
