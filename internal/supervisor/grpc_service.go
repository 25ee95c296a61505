package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
)

// GRPCServer часть *grpc.Server, нужная сервису.
type GRPCServer interface {
	Serve(lis net.Listener) error
	GracefulStop()
	Stop()
}

// GRPCService запускает gRPC сервер как suture.Service.
// Остановленный grpc.Server повторно не запускается, поэтому при каждом старте
// newServer создает новый экземпляр.
type GRPCService struct {
	addr            string
	newServer       func() GRPCServer
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func NewGRPCService(addr string, newServer func() GRPCServer, shutdownTimeout time.Duration, logger *slog.Logger) *GRPCService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &GRPCService{addr: addr, newServer: newServer, shutdownTimeout: shutdownTimeout, logger: logger}
}

// Serve слушает addr до отмены ctx.
func (s *GRPCService) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serveListener(ctx, lis)
}

func (s *GRPCService) serveListener(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()
	s.logger.InfoContext(ctx, "gRPC server starting", slog.String("address", lis.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("grpc server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(s.shutdownTimeout):
			s.logger.Warn("gRPC graceful stop timed out, forcing stop")
			srv.Stop()
		}
		<-errCh
		s.logger.Info("gRPC server stopped")
		return ctx.Err()
	}
}

func (s *GRPCService) String() string {
	return "grpc-server"
}
