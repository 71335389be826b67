package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/booklend/go-booklend-backend/internal/validation"
	"github.com/booklend/go-booklend-backend/internal/wishlist"
)

// RegisterWishlistRoutes registers wishlist routes.
func RegisterWishlistRoutes(r *gin.Engine, store *wishlist.Store, requireAuth gin.HandlerFunc) {
	v := validation.New()

	r.POST("/wishlist", requireAuth, func(c *gin.Context) {
		var req validation.CreateWishlistRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		entry := wishlist.Entry{
			EntryID:     uuid.NewString(),
			BookID:      req.BookID,
			BookTitle:   req.BookTitle,
			ReaderEmail: req.ReaderEmail,
		}
		if err := store.Add(c.Request.Context(), entry); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_wishlist_failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entryId": entry.EntryID})
	})

	r.GET("/wishlist/by-email", requireAuth, func(c *gin.Context) {
		mine, err := store.ListByReader(c.Request.Context(), c.Query("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_wishlist_failed"})
			return
		}
		c.JSON(http.StatusOK, mine)
	})
}
