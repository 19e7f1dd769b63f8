package services

// Principal is the authenticated caller of an exam operation
type Principal struct {
	ID      int64
	Login   string
	IsAdmin bool
}
