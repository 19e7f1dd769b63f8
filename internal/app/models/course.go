package models

// Course groups exams and the users enrolled in them
type Course struct {
	ID        int64  `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	ShortName string `json:"shortName" db:"short_name"`
}

// CourseMembership is the role a user holds in a course
type CourseMembership struct {
	CourseID int64      `json:"courseId" db:"course_id"`
	UserID   int64      `json:"userId" db:"user_id"`
	Role     CourseRole `json:"role" db:"role"`
}
