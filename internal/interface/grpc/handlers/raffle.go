package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/ark-network/raffle/internal/core/application"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const listenerBufferSize = 64

type raffleHandler struct {
	svc    application.Service
	events *broker[*eventResponse]
}

func newRaffleHandler(svc application.Service) *raffleHandler {
	h := &raffleHandler{
		svc:    svc,
		events: newBroker[*eventResponse](),
	}

	go h.listenToEvents()

	return h
}

func (h *raffleHandler) register(r gin.IRouter) {
	r.GET("/info", h.getInfo)
	r.POST("/enter", h.enterRaffle)
	r.GET("/upkeep", h.checkUpkeep)
	r.POST("/upkeep", h.performUpkeep)
	r.GET("/participants", h.getParticipants)
	r.GET("/participants/:index", h.getParticipant)
	r.GET("/round", h.getCurrentRound)
	r.GET("/rounds", h.getRoundsHistory)
	r.GET("/rounds/:id", h.getRound)
	r.GET("/events", h.getEventStream)
}

func (h *raffleHandler) getInfo(c *gin.Context) {
	info, err := h.svc.GetInfo(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newInfoResponse(info))
}

func (h *raffleHandler) enterRaffle(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err.Error())
		return
	}

	txid, err := h.svc.EnterRaffle(c.Request.Context(), req.Participant, req.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"txid": txid})
}

func (h *raffleHandler) checkUpkeep(c *gin.Context) {
	status, err := h.svc.CheckUpkeep(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUpkeepResponse(status))
}

func (h *raffleHandler) performUpkeep(c *gin.Context) {
	requestId, err := h.svc.PerformUpkeep(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestId": requestId})
}

func (h *raffleHandler) getParticipants(c *gin.Context) {
	participants, err := h.svc.GetParticipants(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *raffleHandler) getParticipant(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithBadRequest(c, "invalid participant index")
		return
	}

	participant, err := h.svc.GetParticipant(c.Request.Context(), index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

func (h *raffleHandler) getCurrentRound(c *gin.Context) {
	round, err := h.svc.GetCurrentRound(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoundResponse(*round))
}

func (h *raffleHandler) getRound(c *gin.Context) {
	round, err := h.svc.GetRoundById(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoundResponse(*round))
}

func (h *raffleHandler) getRoundsHistory(c *gin.Context) {
	after, err := parseTimestamp(c.Query("after"))
	if err != nil {
		abortWithBadRequest(c, "invalid after timestamp")
		return
	}
	before, err := parseTimestamp(c.Query("before"))
	if err != nil {
		abortWithBadRequest(c, "invalid before timestamp")
		return
	}

	rounds, err := h.svc.GetRoundsHistory(c.Request.Context(), after, before)
	if err != nil {
		abortWithError(c, err)
		return
	}

	list := make([]roundResponse, 0, len(rounds))
	for _, round := range rounds {
		list = append(list, newRoundResponse(round))
	}
	c.JSON(http.StatusOK, gin.H{"rounds": list})
}

func (h *raffleHandler) getEventStream(c *gin.Context) {
	listener := &listener[*eventResponse]{
		id: uuid.NewString(),
		ch: make(chan *eventResponse, listenerBufferSize),
	}

	h.events.pushListener(listener)
	defer h.events.removeListener(listener.id)

	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-listener.ch:
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}

func (h *raffleHandler) listenToEvents() {
	channel := h.svc.GetEventsChannel(context.Background())
	for event := range channel {
		ev, ok := newEventResponse(event)
		if !ok {
			continue
		}
		// Events are forwarded from a single routine to preserve ordering.
		log.Debugf("forwarding %s event to %d listeners", ev.Type, h.events.numOfListeners())
		h.events.publish(ev)
	}
}

func parseTimestamp(s string) (int64, error) {
	if len(s) <= 0 {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
