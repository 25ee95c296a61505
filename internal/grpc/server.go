package grpc

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"filmorate/internal/domain"
	"filmorate/internal/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FilmService операции над фильмами, нужные gRPC серверу.
type FilmService interface {
	FindByID(ctx context.Context, id int64) (domain.FilmDto, error)
	CheckExists(ctx context.Context, id int64) error
}

// UserService операции над пользователями, нужные gRPC серверу.
type UserService interface {
	FindByID(ctx context.Context, id int64) (domain.UserDto, error)
	CheckExists(ctx context.Context, id int64) error
}

// Server реализует InterServiceServer поверх сервисов фильмов и пользователей.
type Server struct {
	films  FilmService
	users  UserService
	logger *slog.Logger
}

var _ InterServiceServer = (*Server)(nil)

// NewServer создает новый экземпляр gRPC сервера.
func NewServer(films FilmService, users UserService, logger *slog.Logger) *Server {
	return &Server{films: films, users: users, logger: logger}
}

// NewGRPCServer создает grpc.Server с зарегистрированным InterService и интерсептором метрик.
func NewGRPCServer(srv InterServiceServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(MetricsInterceptor))
	s := grpc.NewServer(opts...)
	RegisterInterServiceServer(s, srv)
	return s
}

// MetricsInterceptor считает вызовы по методу и коду ответа.
func MetricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	metrics.RecordGRPCRequest(path.Base(info.FullMethod), status.Code(err).String())
	return resp, err
}

// CheckFilmExists реализует gRPC метод CheckFilmExists.
func (s *Server) CheckFilmExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	s.logger.InfoContext(ctx, "gRPC CheckFilmExists called", slog.Int64("film_id", req.GetValue()))
	return s.checkExists(ctx, "film", req.GetValue(), s.films.CheckExists)
}

// CheckUserExists реализует gRPC метод CheckUserExists.
func (s *Server) CheckUserExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	s.logger.InfoContext(ctx, "gRPC CheckUserExists called", slog.Int64("user_id", req.GetValue()))
	return s.checkExists(ctx, "user", req.GetValue(), s.users.CheckExists)
}

func (s *Server) checkExists(ctx context.Context, kind string, id int64, check func(context.Context, int64) error) (*wrapperspb.BoolValue, error) {
	if id <= 0 {
		s.logger.WarnContext(ctx, "gRPC existence check called with invalid id", slog.String("kind", kind), slog.Int64("id", id))
		return nil, status.Errorf(codes.InvalidArgument, "%s id must be positive", kind)
	}
	err := check(ctx, id)
	switch {
	case err == nil:
		return wrapperspb.Bool(true), nil
	case errors.Is(err, domain.ErrNotFound):
		return wrapperspb.Bool(false), nil
	default:
		s.logger.ErrorContext(ctx, "Failed to check existence", slog.String("kind", kind), slog.Int64("id", id), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to check %s existence", kind)
	}
}

// GetFilmInfo реализует gRPC метод GetFilmInfo.
func (s *Server) GetFilmInfo(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetFilmInfo called", slog.Int64("film_id", id))
	if id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "film id must be positive")
	}
	film, err := s.films.FindByID(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "film", id, err)
	}
	out, err := structpb.NewStruct(FilmToMap(film))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode film", slog.Int64("film_id", id), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to encode film")
	}
	return out, nil
}

// GetUser реализует gRPC метод GetUser.
func (s *Server) GetUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetUser called", slog.Int64("user_id", id))
	if id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "user id must be positive")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "user", id, err)
	}
	out, err := structpb.NewStruct(UserToMap(user))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode user", slog.Int64("user_id", id), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to encode user")
	}
	return out, nil
}

func (s *Server) toStatus(ctx context.Context, kind string, id int64, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "Entity not found via gRPC", slog.String("kind", kind), slog.Int64("id", id))
		return status.Errorf(codes.NotFound, "%s with id %d not found", kind, id)
	}
	s.logger.ErrorContext(ctx, "gRPC lookup failed", slog.String("kind", kind), slog.Int64("id", id), slog.String("error", err.Error()))
	return status.Errorf(codes.Internal, "failed to retrieve %s", kind)
}

// FilmToMap раскладывает фильм в значения, допустимые для structpb.
func FilmToMap(film domain.FilmDto) map[string]any {
	genres := make([]any, 0, len(film.Genres))
	for _, g := range film.Genres {
		genres = append(genres, map[string]any{"id": g.ID, "name": g.Name})
	}
	return map[string]any{
		"id":          film.ID,
		"name":        film.Name,
		"description": film.Description,
		"releaseDate": film.ReleaseDate.String(),
		"duration":    film.Duration,
		"mpa":         map[string]any{"id": film.Mpa.ID, "name": film.Mpa.Name},
		"genres":      genres,
		"likesCount":  film.LikesCount,
	}
}

// UserToMap раскладывает пользователя в значения, допустимые для structpb.
func UserToMap(user domain.UserDto) map[string]any {
	return map[string]any{
		"id":       user.ID,
		"email":    user.Email,
		"login":    user.Login,
		"name":     user.Name,
		"birthday": user.Birthday.String(),
	}
}
