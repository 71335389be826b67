package books

import "time"

// Catalog situations
const (
	SituationPublished   = "Published"
	SituationUnpublished = "Unpublished"
)

// Book represents a catalog record in the books table.
type Book struct {
	BookID         string    `dynamodbav:"book_id"` // PK
	Title          string    `dynamodbav:"title"`
	Author         string    `dynamodbav:"author,omitempty"`
	Description    string    `dynamodbav:"description,omitempty"`
	Image          string    `dynamodbav:"image,omitempty"`
	Price          float64   `dynamodbav:"price"`
	Situation      string    `dynamodbav:"situation"` // Published | Unpublished
	LibrarianEmail string    `dynamodbav:"librarian_email"`
	AddedAt        time.Time `dynamodbav:"added_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}
