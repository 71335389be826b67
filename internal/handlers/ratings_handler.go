package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/booklend/go-booklend-backend/internal/ratings"
	"github.com/booklend/go-booklend-backend/internal/validation"
)

// RegisterRatingRoutes registers review routes.
func RegisterRatingRoutes(r *gin.Engine, store *ratings.Store, requireAuth gin.HandlerFunc) {
	v := validation.New()

	r.POST("/ratings", requireAuth, func(c *gin.Context) {
		var req validation.CreateRatingRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		rating := ratings.Rating{
			RatingID:    uuid.NewString(),
			BookID:      req.BookID,
			ReaderEmail: req.ReaderEmail,
			Score:       req.Score,
			Comment:     req.Comment,
		}
		if err := store.Add(c.Request.Context(), rating); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_rating_failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ratingId": rating.RatingID})
	})

	r.GET("/ratings/book-id", requireAuth, func(c *gin.Context) {
		found, err := store.ListByBook(c.Request.Context(), c.Query("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_ratings_failed"})
			return
		}
		c.JSON(http.StatusOK, found)
	})
}
