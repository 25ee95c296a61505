// Package clients содержит gRPC клиент filmorate.v1.InterService с circuit breaker.
package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	fgrpc "filmorate/internal/grpc"
	"filmorate/internal/metrics"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	// ErrNotFound сущность с запрошенным id отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable circuit breaker открыт, вызов не выполнялся.
	ErrUnavailable = errors.New("inter service unavailable")
)

// Config параметры клиента и его circuit breaker.
type Config struct {
	Address          string
	CallTimeout      time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	Interval         time.Duration
}

// DefaultConfig значения по умолчанию для адреса addr.
func DefaultConfig(addr string) Config {
	return Config{
		Address:          addr,
		CallTimeout:      3 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
		Interval:         time.Minute,
	}
}

// InterServiceClient вызывает методы InterService через circuit breaker.
type InterServiceClient struct {
	conn    *grpc.ClientConn
	cb      *gobreaker.CircuitBreaker[interface{}]
	timeout time.Duration
	logger  *slog.Logger
}

// NewInterServiceClient создает клиент. Соединение устанавливается лениво при первом вызове.
func NewInterServiceClient(cfg Config, logger *slog.Logger, opts ...grpc.DialOption) (*InterServiceClient, error) {
	logger.Info("Creating InterService gRPC client", slog.String("address", cfg.Address))

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		logger.Error("Failed to create InterService gRPC client", slog.String("address", cfg.Address), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create client for %s: %w", cfg.Address, err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &InterServiceClient{
		conn:    conn,
		cb:      newBreaker("filmorate-inter-service", cfg, logger),
		timeout: timeout,
		logger:  logger,
	}, nil
}

func newBreaker(name string, cfg Config, logger *slog.Logger) *gobreaker.CircuitBreaker[interface{}] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Ответы сервера о неверных данных не считаются отказом.
		IsSuccessful: func(err error) bool {
			switch status.Code(err) {
			case codes.OK, codes.NotFound, codes.InvalidArgument:
				return true
			default:
				return false
			}
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), float64(to))
		},
	})
}

// State текущее состояние circuit breaker.
func (c *InterServiceClient) State() gobreaker.State {
	return c.cb.State()
}

func (c *InterServiceClient) invoke(ctx context.Context, method string, id int64, out proto.Message) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return nil, c.conn.Invoke(callCtx, method, wrapperspb.Int64(id), out)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "InterService call rejected by circuit breaker", slog.String("method", method))
		return fmt.Errorf("%s: %w", method, ErrUnavailable)
	}

	st, _ := status.FromError(err)
	if st.Code() == codes.NotFound {
		return fmt.Errorf("%s id %d: %w", method, id, ErrNotFound)
	}
	c.logger.ErrorContext(ctx, "InterService gRPC call failed",
		slog.String("method", method),
		slog.Int64("id", id),
		slog.String("code", st.Code().String()),
		slog.String("message", st.Message()))
	return fmt.Errorf("grpc %s failed for id %d: %w", method, id, err)
}

// CheckFilmExists вызывает CheckFilmExists.
func (c *InterServiceClient) CheckFilmExists(ctx context.Context, filmID int64) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, fgrpc.CheckFilmExistsMethod, filmID, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// CheckUserExists вызывает CheckUserExists.
func (c *InterServiceClient) CheckUserExists(ctx context.Context, userID int64) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, fgrpc.CheckUserExistsMethod, userID, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// GetFilmInfo возвращает фильм в виде map, как его отдает сервер.
func (c *InterServiceClient) GetFilmInfo(ctx context.Context, filmID int64) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, fgrpc.GetFilmInfoMethod, filmID, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// GetUser возвращает пользователя в виде map.
func (c *InterServiceClient) GetUser(ctx context.Context, userID int64) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, fgrpc.GetUserMethod, userID, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Close закрывает gRPC соединение.
func (c *InterServiceClient) Close() error {
	if c.conn != nil {
		c.logger.Info("Closing gRPC connection to InterService")
		return c.conn.Close()
	}
	return nil
}
