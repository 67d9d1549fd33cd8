package handlers

import (
	"errors"
	"net/http"

	"github.com/ark-network/raffle/internal/core/application"
	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error             string `json:"error"`
	Balance           uint64 `json:"balance,omitempty"`
	NumOfParticipants int    `json:"numOfParticipants,omitempty"`
	Phase             string `json:"phase,omitempty"`
}

var errorStatusCodes = []struct {
	err  error
	code int
}{
	{domain.ErrInsufficientFee, http.StatusBadRequest},
	{domain.ErrIndexOutOfRange, http.StatusBadRequest},
	{application.ErrMissingWords, http.StatusBadRequest},
	{domain.ErrRoundNotOpen, http.StatusConflict},
	{domain.ErrUpkeepNotNeeded, http.StatusConflict},
	{application.ErrNoPendingPayout, http.StatusConflict},
	{domain.ErrUnknownRequest, http.StatusNotFound},
	{application.ErrRoundNotFound, http.StatusNotFound},
	{domain.ErrPayoutTransferFailed, http.StatusBadGateway},
}

func statusCode(err error) int {
	for _, e := range errorStatusCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	code := statusCode(err)
	resp := errorResponse{Error: err.Error()}

	var upkeepErr domain.UpkeepNotNeededError
	if errors.As(err, &upkeepErr) {
		resp.Balance = upkeepErr.Balance
		resp.NumOfParticipants = upkeepErr.NumOfParticipants
		resp.Phase = upkeepErr.Phase.String()
	}

	if code >= http.StatusInternalServerError {
		log.WithError(err).Warnf("%s %s failed", c.Request.Method, c.FullPath())
	}
	c.AbortWithStatusJSON(code, resp)
}

func abortWithBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
