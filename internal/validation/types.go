package validation

// CreateUserRequest is the payload for POST /users.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	PhotoURL string `json:"photoURL,omitempty"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=Admin Librarian Reader"`
}

// CreateBookRequest is the payload for POST /books.
type CreateBookRequest struct {
	Title          string  `json:"title" validate:"required"`
	Author         string  `json:"author,omitempty"`
	Description    string  `json:"description,omitempty"`
	Image          string  `json:"image,omitempty"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	Situation      string  `json:"situation,omitempty" validate:"omitempty,oneof=Published Unpublished"`
	LibrarianEmail string  `json:"librarianEmail" validate:"required,email"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	BookID         string  `json:"bookId" validate:"required"`
	BookTitle      string  `json:"bookTitle" validate:"required"`
	ReaderEmail    string  `json:"readerEmail" validate:"required,email"`
	LibrarianEmail string  `json:"librarianEmail,omitempty" validate:"omitempty,email"`
	Address        string  `json:"address,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Price          float64 `json:"price" validate:"required,gt=0"`
}

// CheckoutRequest is the payload for POST /create-checkout-session.
type CheckoutRequest struct {
	OrderID     string  `json:"orderId" validate:"required"`
	BookName    string  `json:"bookName" validate:"required"`
	ReaderEmail string  `json:"readerEmail" validate:"required,email"`
	Price       float64 `json:"price" validate:"required,gt=0"` // major units
}

// CreateRatingRequest is the payload for POST /ratings.
type CreateRatingRequest struct {
	BookID      string `json:"bookId" validate:"required"`
	ReaderEmail string `json:"readerEmail" validate:"required,email"`
	Score       int    `json:"score" validate:"required,min=1,max=5"`
	Comment     string `json:"comment,omitempty"`
}

// CreateWishlistRequest is the payload for POST /wishlist.
type CreateWishlistRequest struct {
	BookID      string `json:"bookId" validate:"required"`
	BookTitle   string `json:"bookTitle" validate:"required"`
	ReaderEmail string `json:"readerEmail" validate:"required,email"`
}
