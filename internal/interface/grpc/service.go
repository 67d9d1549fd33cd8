package grpcservice

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	appconfig "github.com/ark-network/raffle/internal/app-config"
	interfaces "github.com/ark-network/raffle/internal/interface"
	"github.com/ark-network/raffle/internal/interface/grpc/handlers"
	"github.com/ark-network/raffle/internal/interface/grpc/interceptors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

type service struct {
	config       Config
	appConfig    *appconfig.Config
	server       *http.Server
	grpcServer   *grpc.Server
	otelShutdown func(context.Context) error
}

func NewService(
	svcConfig Config, appConfig *appconfig.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	return &service{config: svcConfig, appConfig: appConfig}, nil
}

func (s *service) Start() error {
	tlsConfig, err := s.config.tlsConfig()
	if err != nil {
		return err
	}

	if err := s.newServer(tlsConfig); err != nil {
		return err
	}

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return err
	}
	if err := appSvc.Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")

	if s.config.insecure() {
		// nolint:all
		go s.server.ListenAndServe()
	} else {
		// nolint:all
		go s.server.ListenAndServeTLS("", "")
	}
	log.Infof("started listening at %s", s.config.address())

	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.server != nil {
		//nolint:all
		s.server.Shutdown(ctx)
		s.grpcServer.Stop()
		log.Info("stopped grpc server")
	}

	appSvc, _ := s.appConfig.AppService()
	if appSvc != nil {
		appSvc.Stop()
		log.Info("stopped app service")
	}

	if s.otelShutdown != nil {
		if err := s.otelShutdown(ctx); err != nil {
			log.Errorf("failed to shutdown otel: %s", err)
		}
	}
}

func (s *service) newServer(tlsConfig *tls.Config) error {
	if s.appConfig.OtelCollectorEndpoint != "" {
		otelShutdown, err := initOtelSDK(
			context.Background(), s.appConfig.OtelCollectorEndpoint,
		)
		if err != nil {
			return err
		}
		s.otelShutdown = otelShutdown
	}

	otelHandler := otelgrpc.NewServerHandler(
		otelgrpc.WithTracerProvider(otel.GetTracerProvider()),
	)

	grpcConfig := []grpc.ServerOption{
		interceptors.UnaryInterceptor(),
		interceptors.StreamInterceptor(),
		grpc.StatsHandler(otelHandler),
	}
	creds := insecure.NewCredentials()
	if !s.config.insecure() {
		creds = credentials.NewTLS(tlsConfig)
	}
	grpcConfig = append(grpcConfig, grpc.Creds(creds))

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer(grpcConfig...)
	grpchealth.RegisterHealthServer(grpcServer, handlers.NewHealthHandler(appSvc))

	routerConfig := handlers.RouterConfig{
		OracleAuthToken: s.appConfig.OracleAuthToken,
		AdminAuthToken:  s.appConfig.AdminAuthToken,
	}
	if oracle, ok := s.appConfig.ExternalOracle(); ok {
		routerConfig.Fulfiller = oracle
		routerConfig.PendingRequests = pendingRequests(oracle)
	}
	if oracle, ok := s.appConfig.VrfOracle(); ok {
		routerConfig.Prover = vrfProver{oracle}
	}
	restHandler := handlers.NewRouter(appSvc, routerConfig)

	var httpServerHandler http.Handler = router(grpcServer, restHandler)
	if s.config.insecure() {
		httpServerHandler = h2c.NewHandler(httpServerHandler, &http2.Server{})
	}

	s.grpcServer = grpcServer
	s.server = &http.Server{
		Addr:              s.config.address(),
		Handler:           httpServerHandler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

func router(grpcServer *grpc.Server, restHandler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOptionRequest(r) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			return
		}

		if isGrpcRequest(r) {
			grpcServer.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		restHandler.ServeHTTP(w, r)
	})
}

func isOptionRequest(req *http.Request) bool {
	return req.Method == http.MethodOptions
}

func isGrpcRequest(req *http.Request) bool {
	return req.ProtoMajor == 2 &&
		strings.HasPrefix(req.Header.Get("Content-Type"), "application/grpc")
}
