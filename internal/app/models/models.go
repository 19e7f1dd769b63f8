package models

// RoleType defines the global user role type
type RoleType string

const (
	RoleStudent    RoleType = "STUDENT"
	RoleInstructor RoleType = "INSTRUCTOR"
	RoleAdmin      RoleType = "ADMIN"
)

// CourseRole is the role a user holds inside a single course
type CourseRole string

const (
	CourseRoleNone       CourseRole = ""
	CourseRoleStudent    CourseRole = "STUDENT"
	CourseRoleTutor      CourseRole = "TUTOR"
	CourseRoleEditor     CourseRole = "EDITOR"
	CourseRoleInstructor CourseRole = "INSTRUCTOR"
)

var courseRoleRank = map[CourseRole]int{
	CourseRoleNone:       0,
	CourseRoleStudent:    1,
	CourseRoleTutor:      2,
	CourseRoleEditor:     3,
	CourseRoleInstructor: 4,
}

// AtLeast reports whether the role grants at least the rights of the given role
func (r CourseRole) AtLeast(other CourseRole) bool {
	return courseRoleRank[r] >= courseRoleRank[other] && courseRoleRank[r] > 0
}
