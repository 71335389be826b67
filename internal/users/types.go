package users

import "time"

// Roles
const (
	RoleAdmin     = "Admin"
	RoleLibrarian = "Librarian"
	RoleReader    = "Reader"
)

// User represents an account record in the users table.
type User struct {
	UserID    string    `dynamodbav:"user_id"` // PK
	Email     string    `dynamodbav:"email"`
	Name      string    `dynamodbav:"name,omitempty"`
	PhotoURL  string    `dynamodbav:"photo_url,omitempty"`
	Role      string    `dynamodbav:"role"` // Admin | Librarian | Reader
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}
