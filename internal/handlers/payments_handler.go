package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/booklend/go-booklend-backend/internal/apperrors"
	"github.com/booklend/go-booklend-backend/internal/payments"
	"github.com/booklend/go-booklend-backend/internal/validation"
)

// PaymentDeps groups dependencies for the payment routes.
type PaymentDeps struct {
	Engine     *payments.Engine
	Gateway    payments.Gateway
	Ledger     *payments.Ledger
	SiteDomain string
	Log        *zap.Logger
}

// RegisterPaymentRoutes registers checkout initiation, confirmation and
// payment history routes.
func RegisterPaymentRoutes(r *gin.Engine, d PaymentDeps, requireAuth gin.HandlerFunc) {
	v := validation.New()

	r.GET("/payments/by-email", requireAuth, func(c *gin.Context) {
		recs, err := d.Ledger.ListByEmail(c.Request.Context(), c.Query("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_payments_failed"})
			return
		}
		c.JSON(http.StatusOK, recs)
	})

	r.POST("/create-checkout-session", requireAuth, func(c *gin.Context) {
		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		url, err := d.Gateway.CreateSession(c.Request.Context(), payments.CreateSessionInput{
			OrderID:     req.OrderID,
			BookTitle:   req.BookName,
			ReaderEmail: req.ReaderEmail,
			AmountCents: int64(math.Round(req.Price * 100)),
			SuccessURL:  d.SiteDomain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:   d.SiteDomain + "/dashboard/payment-cancelled",
		})
		if err != nil {
			d.Log.Error("checkout session creation failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "checkout_session_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	})

	// The gateway redirects the reader here without a bearer token; the
	// session id is the capability, and the engine trusts only what the
	// gateway reports about it.
	r.PATCH("/payment-success", func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			return
		}

		result, err := d.Engine.Confirm(c.Request.Context(), sessionID)
		if err != nil {
			switch apperrors.CodeOf(err) {
			case apperrors.CodeGatewayFailure:
				c.JSON(http.StatusBadGateway, gin.H{
					"success":   false,
					"error":     "gateway_failure",
					"retryable": true,
				})
			case apperrors.CodeOrderNotFound:
				c.JSON(http.StatusConflict, gin.H{
					"success":   false,
					"error":     "order_not_found",
					"retryable": false,
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"success":   false,
					"error":     "confirmation_failed",
					"retryable": apperrors.IsRetryable(err),
				})
			}
			return
		}

		switch result.Status {
		case payments.StatusPaid:
			c.JSON(http.StatusOK, gin.H{
				"success":     true,
				"order":       result.Order,
				"paymentInfo": result.Payment,
			})
		case payments.StatusAlreadyProcessed:
			c.JSON(http.StatusOK, gin.H{
				"success":          true,
				"alreadyProcessed": true,
				"paymentInfo":      result.Payment,
			})
		default:
			c.JSON(http.StatusOK, gin.H{"success": false})
		}
	})
}
