package handlers

import (
	"context"

	"github.com/ark-network/raffle/internal/core/application"
	log "github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

type healthHandler struct {
	grpchealth.UnimplementedHealthServer
	svc application.Service
}

// NewHealthHandler reports the daemon as serving only while the pool wallet
// is ready to take deposits and send payouts.
func NewHealthHandler(svc application.Service) grpchealth.HealthServer {
	return &healthHandler{svc: svc}
}

func (h *healthHandler) Check(
	ctx context.Context,
	_ *grpchealth.HealthCheckRequest,
) (*grpchealth.HealthCheckResponse, error) {
	return &grpchealth.HealthCheckResponse{
		Status: servingStatus(ctx, h.svc),
	}, nil
}

func (h *healthHandler) Watch(
	_ *grpchealth.HealthCheckRequest,
	_ grpchealth.Health_WatchServer,
) error {
	return nil
}

func servingStatus(
	ctx context.Context, svc application.Service,
) grpchealth.HealthCheckResponse_ServingStatus {
	status, err := svc.GetWalletStatus(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to get wallet status")
		return grpchealth.HealthCheckResponse_NOT_SERVING
	}
	if !status.IsInitialized() || !status.IsUnlocked() || !status.IsSynced() {
		return grpchealth.HealthCheckResponse_NOT_SERVING
	}
	return grpchealth.HealthCheckResponse_SERVING
}
