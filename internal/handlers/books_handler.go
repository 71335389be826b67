package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/booklend/go-booklend-backend/internal/auth"
	"github.com/booklend/go-booklend-backend/internal/books"
	"github.com/booklend/go-booklend-backend/internal/validation"
)

// RegisterBookRoutes registers catalog routes.
func RegisterBookRoutes(r *gin.Engine, store *books.Store, requireAuth, requireAdmin gin.HandlerFunc) {
	v := validation.New()

	r.POST("/books", requireAuth, func(c *gin.Context) {
		var req validation.CreateBookRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		situation := req.Situation
		if situation == "" {
			situation = books.SituationUnpublished
		}
		b := books.Book{
			BookID:         uuid.NewString(),
			Title:          req.Title,
			Author:         req.Author,
			Description:    req.Description,
			Image:          req.Image,
			Price:          req.Price,
			Situation:      situation,
			LibrarianEmail: req.LibrarianEmail,
		}
		if err := store.Create(c.Request.Context(), b); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_book_failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"bookId": b.BookID})
	})

	r.GET("/books", func(c *gin.Context) {
		all, err := store.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_books_failed"})
			return
		}
		c.JSON(http.StatusOK, all)
	})

	r.GET("/books/recent", func(c *gin.Context) {
		recent, err := store.Recent(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recent_books_failed"})
			return
		}
		c.JSON(http.StatusOK, recent)
	})

	r.GET("/books/search", func(c *gin.Context) {
		found, err := store.Search(c.Request.Context(), c.Query("searchtext"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search_failed"})
			return
		}
		c.JSON(http.StatusOK, found)
	})

	r.GET("/books/librarian", requireAuth, func(c *gin.Context) {
		email := c.Query("email")
		if email != auth.DecodedEmail(c) {
			c.JSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
			return
		}
		mine, err := store.ListByLibrarian(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_books_failed"})
			return
		}
		c.JSON(http.StatusOK, mine)
	})

	// Singular prefix: gin's route tree rejects a :id wildcard next to the
	// static /books/ subpaths above.
	r.GET("/book/:id", requireAuth, func(c *gin.Context) {
		b, err := store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "get_book_failed"})
			return
		}
		if b == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.DELETE("/book/:id", requireAuth, requireAdmin, func(c *gin.Context) {
		if err := store.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_book_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})

	r.PATCH("/books/librarian/:id", requireAuth, func(c *gin.Context) {
		patchBook(c, store, c.Param("id"))
	})

	r.PATCH("/books-all/admin/:id", requireAuth, requireAdmin, func(c *gin.Context) {
		patchBook(c, store, c.Param("id"))
	})
}

func patchBook(c *gin.Context, store *books.Store, bookID string) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}
	delete(fields, "book_id")
	if err := store.Patch(c.Request.Context(), bookID, fields); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "patch_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"modifiedCount": 1})
}
