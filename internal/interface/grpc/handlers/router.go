package handlers

import (
	"net/http"
	"time"

	"github.com/ark-network/raffle/internal/core/application"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type RouterConfig struct {
	// Fulfiller enables the oracle endpoints when set.
	Fulfiller Fulfiller
	// PendingRequests lists the requests the Fulfiller is waiting for.
	PendingRequests func() []PendingRequest
	// Prover serves the proofs of a verifiable oracle when set.
	Prover          Prover
	OracleAuthToken string
	AdminAuthToken  string
}

// NewRouter returns the REST api of the raffle.
func NewRouter(svc application.Service, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		status := servingStatus(c.Request.Context(), svc)
		code := http.StatusOK
		if status != grpchealth.HealthCheckResponse_SERVING {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status.String()})
	})

	v1 := router.Group("/v1")
	newRaffleHandler(svc).register(v1)

	admin := v1.Group("/admin", tokenAuth(cfg.AdminAuthToken))
	(&adminHandler{svc}).register(admin)

	if cfg.Fulfiller != nil {
		oracle := v1.Group("/oracle", tokenAuth(cfg.OracleAuthToken))
		(&oracleHandler{cfg.Fulfiller, cfg.PendingRequests}).register(oracle)
	}
	if cfg.Prover != nil {
		(&proofHandler{cfg.Prover}).register(v1)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf(
			"http %s %s %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start),
		)
	}
}
