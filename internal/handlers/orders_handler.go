package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/booklend/go-booklend-backend/internal/orders"
	"github.com/booklend/go-booklend-backend/internal/validation"
)

// RegisterOrderRoutes registers borrow-order routes.
func RegisterOrderRoutes(r *gin.Engine, store *orders.Store, requireAuth gin.HandlerFunc) {
	v := validation.New()

	r.POST("/orders", requireAuth, func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		o := orders.Order{
			OrderID:        uuid.NewString(),
			BookID:         req.BookID,
			BookTitle:      req.BookTitle,
			ReaderEmail:    req.ReaderEmail,
			LibrarianEmail: req.LibrarianEmail,
			Address:        req.Address,
			Phone:          req.Phone,
			Price:          req.Price,
			PaymentStatus:  orders.PaymentUnpaid,
		}
		if err := store.Create(c.Request.Context(), o); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_order_failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"orderId": o.OrderID, "paymentStatus": o.PaymentStatus})
	})

	r.GET("/orders", requireAuth, func(c *gin.Context) {
		all, err := store.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_orders_failed"})
			return
		}
		c.JSON(http.StatusOK, all)
	})

	r.GET("/orders/of-user", requireAuth, func(c *gin.Context) {
		mine, err := store.ListByReader(c.Request.Context(), c.Query("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_orders_failed"})
			return
		}
		c.JSON(http.StatusOK, mine)
	})

	r.GET("/orders/of-librarian", requireAuth, func(c *gin.Context) {
		mine, err := store.ListByLibrarian(c.Request.Context(), c.Query("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_orders_failed"})
			return
		}
		c.JSON(http.StatusOK, mine)
	})

	r.GET("/orders/delivery-status/stats", requireAuth, func(c *gin.Context) {
		stats, err := store.DeliveryStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.GET("/orders/librarian-email/:email/stats", requireAuth, func(c *gin.Context) {
		stats, err := store.StatsByLibrarian(c.Request.Context(), c.Param("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.GET("/orders/reader-email/:email/stats", requireAuth, func(c *gin.Context) {
		stats, err := store.StatsByReader(c.Request.Context(), c.Param("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Singular prefix: gin's route tree rejects a :id wildcard next to the
	// static /orders/ subpaths above.
	r.PATCH("/order/:id", requireAuth, func(c *gin.Context) {
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}
		if err := store.Patch(c.Request.Context(), c.Param("id"), fields); err != nil {
			if errors.Is(err, orders.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "patch_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"modifiedCount": 1})
	})

	r.DELETE("/order/:id", requireAuth, func(c *gin.Context) {
		if err := store.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_order_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}
