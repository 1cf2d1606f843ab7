package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Hash  string `db:"password_hash" json:"-"`
	Role  string `db:"role" json:"role"`
}
