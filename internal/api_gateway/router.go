package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/handler"
	"github.com/grymey-ledger/internal/api_gateway/middleware"
)

// handlers groups everything setupRouter mounts. history is nil when no
// history store is configured.
type handlers struct {
	wallet  *handler.WalletHandler
	payment *handler.PaymentHandler
	escrow  *handler.EscrowHandler
	split   *handler.SplitHandler
	circle  *handler.CircleHandler
	jar     *handler.JarHandler
	history *handler.HistoryHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers) {
	r.Use(middleware.Recovery(logger))
	// CorrelationID runs first so the request log line carries the id
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints, all on behalf of the X-User-ID caller
	v1 := r.Group("/api/v1")
	v1.Use(middleware.UserID())
	{
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:mode", h.wallet.Get)
			wallets.GET("/:mode/entries", h.wallet.ListEntries)
			wallets.GET("/:mode/verify", h.wallet.Verify)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", h.wallet.ListTransactions)
			transactions.GET("/:reference", h.wallet.GetTransaction)
		}

		v1.POST("/deposits", h.payment.Deposit)
		v1.POST("/transfers", h.payment.Transfer)
		v1.POST("/bills", h.payment.PayBill)

		cards := v1.Group("/cards")
		{
			cards.POST("", h.payment.IssueCard)
			cards.GET("", h.payment.ListCards)
			cards.GET("/:id", h.payment.GetCard)
			cards.POST("/:id/fund", h.payment.FundCard)
			cards.POST("/:id/freeze", h.payment.FreezeCard)
		}

		escrows := v1.Group("/escrows")
		{
			escrows.POST("", h.escrow.Create)
			escrows.GET("", h.escrow.List)
			escrows.GET("/:id", h.escrow.Get)
			escrows.POST("/:id/release", h.escrow.Release)
			escrows.POST("/:id/cancel", h.escrow.Cancel)
			escrows.POST("/:id/dispute", h.escrow.Dispute)
		}

		splits := v1.Group("/splits")
		{
			splits.POST("", h.split.Create)
			splits.GET("", h.split.List)
			splits.GET("/:id", h.split.Get)
			splits.POST("/:id/process", h.split.Process)
			splits.POST("/:id/cancel", h.split.Cancel)
		}

		circles := v1.Group("/circles")
		{
			circles.POST("", h.circle.Create)
			circles.GET("", h.circle.List)
			circles.GET("/:id", h.circle.Get)
			circles.POST("/:id/members", h.circle.Invite)
			circles.POST("/:id/accept", h.circle.Accept)
			circles.POST("/:id/lock", h.circle.Lock)
			circles.POST("/:id/unlock", h.circle.Unlock)
			circles.POST("/:id/contributions", h.circle.Contribute)
			circles.POST("/:id/withdrawals", h.circle.Withdraw)
			circles.POST("/:id/withdrawals/:withdrawal_id/approve", h.circle.ApproveWithdrawal)
			circles.POST("/:id/withdrawals/:withdrawal_id/reject", h.circle.RejectWithdrawal)
			circles.POST("/:id/withdrawals/:withdrawal_id/cancel", h.circle.CancelWithdrawal)
		}

		jars := v1.Group("/jars")
		{
			jars.POST("", h.jar.Create)
			jars.GET("", h.jar.List)
			jars.GET("/:id", h.jar.Get)
			jars.POST("/:id/fund", h.jar.Fund)
			jars.POST("/:id/withdraw", h.jar.Withdraw)
			jars.POST("/:id/lock", h.jar.Lock)
			jars.POST("/:id/unlock", h.jar.Unlock)
		}

		if h.history != nil {
			history := v1.Group("/history")
			{
				history.GET("", h.history.List)
				history.GET("/:reference", h.history.Get)
			}
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
