package handlers

import (
	"net/http"

	"github.com/ark-network/raffle/internal/core/application"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/gin-gonic/gin"
)

type adminHandler struct {
	svc application.Service
}

func (h *adminHandler) register(r gin.IRouter) {
	r.GET("/payouts", h.getPendingPayouts)
	r.POST("/payouts/retry", h.retryPayout)
	r.GET("/balance", h.getBalance)
}

func (h *adminHandler) getPendingPayouts(c *gin.Context) {
	payouts, err := h.svc.GetPendingPayouts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	list := make([]payoutResponse, 0, len(payouts))
	for _, payout := range payouts {
		list = append(list, newPayoutResponse(payout))
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list})
}

func (h *adminHandler) retryPayout(c *gin.Context) {
	txid, err := h.svc.RetryPayout(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"txid": txid})
}

func (h *adminHandler) getBalance(c *gin.Context) {
	balance, err := h.svc.GetWalletBalance(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":   balance,
		"formatted": btcutil.Amount(balance).String(),
	})
}
