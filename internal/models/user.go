package models

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch carries the fields of a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	Name  *string
	Email *string
}
