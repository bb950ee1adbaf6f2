package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/AIRF0X788/Op-V2/internal/server"
)

// roomsService is the health service name that reports whether the
// registry accepts new rooms.
const roomsService = "opv2.Rooms"

// adminServer is the gRPC listener used by orchestrators for liveness and
// capacity checks.
type adminServer struct {
	*grpc.Server
	health   *health.Server
	registry *server.MatchRegistry
}

func newAdminServer(registry *server.MatchRegistry, enableReflection bool) *adminServer {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor, recoveryInterceptor),
		grpc.ChainStreamInterceptor(streamLoggingInterceptor, streamRecoveryInterceptor),
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(roomsService, grpc_health_v1.HealthCheckResponse_SERVING)

	if enableReflection {
		reflection.Register(s)
		log.Info().Msg("gRPC reflection enabled")
	}
	return &adminServer{Server: s, health: hs, registry: registry}
}

// reportCapacity marks the rooms service NOT_SERVING while the registry is
// full.
func (a *adminServer) reportCapacity(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := grpc_health_v1.HealthCheckResponse_SERVING
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next := grpc_health_v1.HealthCheckResponse_SERVING
		if !a.registry.HasCapacity() {
			next = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		if next != last {
			log.Info().
				Str("service", roomsService).
				Str("status", next.String()).
				Int("rooms", a.registry.Count()).
				Msg("Room capacity changed")
			a.health.SetServingStatus(roomsService, next)
			last = next
		}
	}
}

// drain reports NOT_SERVING so load balancers stop routing new players here.
func (a *adminServer) drain() {
	a.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	a.health.SetServingStatus(roomsService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// loggingInterceptor logs all unary RPC calls
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	log.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("gRPC call")
	return resp, err
}

// recoveryInterceptor catches panics and returns proper gRPC errors
func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("method", info.FullMethod).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC handler")
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// streamLoggingInterceptor logs health watches and reflection streams
func streamLoggingInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)

	log.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("gRPC stream")
	return err
}

// streamRecoveryInterceptor catches panics in streaming handlers
func streamRecoveryInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("method", info.FullMethod).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC stream handler")
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(srv, ss)
}
