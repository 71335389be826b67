package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/booklend/go-booklend-backend/internal/users"
	"github.com/booklend/go-booklend-backend/internal/validation"
)

// RegisterUserRoutes registers account routes.
func RegisterUserRoutes(r *gin.Engine, store *users.Store, requireAuth, requireAdmin gin.HandlerFunc) {
	v := validation.New()

	// Registration happens before the caller holds a token.
	r.POST("/users", func(c *gin.Context) {
		var req validation.CreateUserRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		role := req.Role
		if role == "" {
			role = users.RoleReader
		}
		u := users.User{
			UserID:   uuid.NewString(),
			Email:    req.Email,
			Name:     req.Name,
			PhotoURL: req.PhotoURL,
			Role:     role,
		}
		if err := store.Create(c.Request.Context(), u); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_user_failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"userId": u.UserID})
	})

	r.GET("/users", requireAuth, func(c *gin.Context) {
		all, err := store.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_users_failed"})
			return
		}
		c.JSON(http.StatusOK, all)
	})

	r.GET("/users/by-email", func(c *gin.Context) {
		matches, err := store.ListByEmail(c.Request.Context(), c.Query("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
			return
		}
		c.JSON(http.StatusOK, matches)
	})

	r.GET("/users/readers", requireAuth, func(c *gin.Context) {
		readers, err := store.ListByRole(c.Request.Context(), users.RoleReader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_readers_failed"})
			return
		}
		c.JSON(http.StatusOK, readers)
	})

	r.GET("/users/total-count/stats", requireAuth, func(c *gin.Context) {
		stats, err := store.RoleStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.PATCH("/users/normal/:id", requireAuth, func(c *gin.Context) {
		patchUser(c, store, c.Param("id"))
	})

	r.PATCH("/users/admin/:id", requireAuth, requireAdmin, func(c *gin.Context) {
		patchUser(c, store, c.Param("id"))
	})

	r.PATCH("/users/by-email-patch/:email", requireAuth, func(c *gin.Context) {
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}
		delete(fields, "user_id")
		patched, err := store.PatchByEmail(c.Request.Context(), c.Param("email"), fields)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "patch_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"modifiedCount": patched})
	})
}

func patchUser(c *gin.Context, store *users.Store, userID string) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}
	delete(fields, "user_id")
	if err := store.Patch(c.Request.Context(), userID, fields); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "patch_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"modifiedCount": 1})
}
