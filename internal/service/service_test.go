package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"filmorate/internal/domain"
	"filmorate/internal/store"
)

type testEnv struct {
	films   *FilmService
	users   *UserService
	genres  *GenreService
	ratings *RatingMpaaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := store.NewMemoryStores(logger)
	genres := NewGenreService(stores.Genres, logger)
	ratings := NewRatingMpaaService(stores.Ratings, logger)
	users := NewUserService(stores, logger)
	return &testEnv{
		films:   NewFilmService(stores, genres, ratings, users, logger),
		users:   users,
		genres:  genres,
		ratings: ratings,
	}
}

func datePtr(y int, m time.Month, d int) *domain.Date {
	date := domain.NewDate(y, m, d)
	return &date
}

func strPtr(s string) *string { return &s }

func validFilmRequest() domain.NewFilmRequest {
	return domain.NewFilmRequest{
		Name:        "Inception",
		Description: "A thief who steals corporate secrets",
		ReleaseDate: datePtr(2010, time.July, 16),
		Duration:    148,
		Mpa:         &domain.RatingMpaaID{ID: 3},
	}
}

func (e *testEnv) mustCreateUser(t *testing.T, login string) domain.UserDto {
	t.Helper()
	user, err := e.users.Create(context.Background(), domain.NewUserRequest{
		Email:    login + "@example.com",
		Login:    login,
		Birthday: datePtr(1990, time.May, 1),
	})
	if err != nil {
		t.Fatalf("Create user %s failed: %v", login, err)
	}
	return user
}

func (e *testEnv) mustCreateFilm(t *testing.T, name string) domain.FilmDto {
	t.Helper()
	req := validFilmRequest()
	req.Name = name
	film, err := e.films.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create film %s failed: %v", name, err)
	}
	return film
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != field {
		t.Errorf("field = %q, want %q", vErr.Field, field)
	}
}

func TestFilmService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	film, err := env.films.Create(ctx, validFilmRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if film.ID <= 0 {
		t.Errorf("expected generated id, got %d", film.ID)
	}
	if film.Mpa != (domain.RatingMpaa{ID: 3, Name: "PG-13"}) {
		t.Errorf("mpa = %+v", film.Mpa)
	}
	if film.Genres == nil || len(film.Genres) != 0 {
		t.Errorf("genres = %#v, want empty list", film.Genres)
	}
	if film.LikesCount != 0 {
		t.Errorf("likesCount = %d, want 0", film.LikesCount)
	}
}

func TestFilmService_CreateWithGenres(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := validFilmRequest()
	req.Genres = []domain.GenreID{{ID: 2}, {ID: 1}, {ID: 2}}
	film, err := env.films.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	want := []domain.Genre{{ID: 1, Name: "Комедия"}, {ID: 2, Name: "Драма"}}
	if !reflect.DeepEqual(film.Genres, want) {
		t.Errorf("genres = %v, want %v", film.Genres, want)
	}

	found, err := env.films.FindByID(ctx, film.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if !reflect.DeepEqual(found.Genres, want) {
		t.Errorf("stored genres = %v, want %v", found.Genres, want)
	}
}

func TestFilmService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(*domain.NewFilmRequest)
		field    string
		notFound string
	}{
		{
			name:   "release date before movie birthday",
			mutate: func(r *domain.NewFilmRequest) { r.ReleaseDate = datePtr(1895, time.December, 27) },
			field:  "releaseDate",
		},
		{
			name:     "unknown mpa",
			mutate:   func(r *domain.NewFilmRequest) { r.Mpa = &domain.RatingMpaaID{ID: 42} },
			notFound: "rating MPAA with id 42 not found",
		},
		{
			name:     "unknown genres listed",
			mutate:   func(r *domain.NewFilmRequest) { r.Genres = []domain.GenreID{{ID: 99}, {ID: 1}, {ID: 7}} },
			notFound: "genres with ids [7 99] not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validFilmRequest()
			tt.mutate(&req)
			_, err := env.films.Create(ctx, req)
			if tt.field != "" {
				assertValidationField(t, err, tt.field)
				return
			}
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
			if err.Error() != tt.notFound {
				t.Errorf("message = %q, want %q", err.Error(), tt.notFound)
			}
		})
	}

	all, _ := env.films.FindAll(ctx)
	if len(all) != 0 {
		t.Errorf("rejected films were stored: %+v", all)
	}
}

func TestFilmService_ReleaseDateBoundaryAccepted(t *testing.T) {
	env := newTestEnv(t)
	req := validFilmRequest()
	req.ReleaseDate = datePtr(1895, time.December, 28)
	if _, err := env.films.Create(context.Background(), req); err != nil {
		t.Errorf("first screening date must be accepted: %v", err)
	}
}

func TestFilmService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := validFilmRequest()
	req.Genres = []domain.GenreID{{ID: 1}}
	created, err := env.films.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := env.films.Update(ctx, domain.UpdateFilmRequest{
		ID:   created.ID,
		Name: strPtr("Inception 2"),
		Mpa:  &domain.RatingMpaaID{ID: 4},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Inception 2" || updated.Mpa.Name != "R" {
		t.Errorf("fields not applied: %+v", updated)
	}
	if updated.Description != created.Description || updated.Duration != created.Duration {
		t.Errorf("absent fields changed: %+v", updated)
	}
	if len(updated.Genres) != 1 || updated.Genres[0].ID != 1 {
		t.Errorf("genres must be kept when absent: %v", updated.Genres)
	}

	cleared, err := env.films.Update(ctx, domain.UpdateFilmRequest{ID: created.ID, Genres: []domain.GenreID{}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(cleared.Genres) != 0 {
		t.Errorf("empty genres list must clear genres: %v", cleared.Genres)
	}
}

func TestFilmService_UpdateErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	film := env.mustCreateFilm(t, "Film")

	_, err := env.films.Update(ctx, domain.UpdateFilmRequest{ID: 999, Name: strPtr("x")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing film: got %v, want not found", err)
	}

	_, err = env.films.Update(ctx, domain.UpdateFilmRequest{ID: film.ID, ReleaseDate: datePtr(1800, time.January, 1)})
	assertValidationField(t, err, "releaseDate")

	_, err = env.films.Update(ctx, domain.UpdateFilmRequest{ID: film.ID, Genres: []domain.GenreID{{ID: 100}}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown genre: got %v, want not found", err)
	}
}

func TestFilmService_Likes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	film := env.mustCreateFilm(t, "Liked")
	user := env.mustCreateUser(t, "liker")

	if err := env.films.LikeFilm(ctx, film.ID, user.ID); err != nil {
		t.Fatalf("LikeFilm failed: %v", err)
	}
	err := env.films.LikeFilm(ctx, film.ID, user.ID)
	assertValidationField(t, err, "likes")

	found, _ := env.films.FindByID(ctx, film.ID)
	if found.LikesCount != 1 {
		t.Errorf("likesCount = %d, want 1", found.LikesCount)
	}

	if err := env.films.UnlikeFilm(ctx, film.ID, user.ID); err != nil {
		t.Fatalf("UnlikeFilm failed: %v", err)
	}
	if err := env.films.UnlikeFilm(ctx, film.ID, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second unlike: got %v, want not found", err)
	}

	if err := env.films.LikeFilm(ctx, 999, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown film: got %v, want not found", err)
	}
	if err := env.films.LikeFilm(ctx, film.ID, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown user: got %v, want not found", err)
	}
}

func TestFilmService_GetTopPopularFilms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f1 := env.mustCreateFilm(t, "One like")
	f2 := env.mustCreateFilm(t, "Three likes")
	f3 := env.mustCreateFilm(t, "No likes")
	f4 := env.mustCreateFilm(t, "Two likes")
	u1 := env.mustCreateUser(t, "u1")
	u2 := env.mustCreateUser(t, "u2")
	u3 := env.mustCreateUser(t, "u3")

	likes := map[int64][]int64{
		f1.ID: {u1.ID},
		f2.ID: {u1.ID, u2.ID, u3.ID},
		f4.ID: {u2.ID, u3.ID},
	}
	for filmID, users := range likes {
		for _, userID := range users {
			if err := env.films.LikeFilm(ctx, filmID, userID); err != nil {
				t.Fatalf("LikeFilm failed: %v", err)
			}
		}
	}

	top, err := env.films.GetTopPopularFilms(ctx, 10)
	if err != nil {
		t.Fatalf("GetTopPopularFilms failed: %v", err)
	}
	var gotIDs []int64
	for _, f := range top {
		gotIDs = append(gotIDs, f.ID)
	}
	if !reflect.DeepEqual(gotIDs, []int64{f2.ID, f4.ID, f1.ID}) {
		t.Errorf("ranking = %v", gotIDs)
	}
	if top[0].LikesCount != 3 || top[0].Mpa.Name != "PG-13" {
		t.Errorf("unexpected top film: %+v", top[0])
	}

	top2, _ := env.films.GetTopPopularFilms(ctx, 2)
	if len(top2) != 2 {
		t.Errorf("len = %d, want 2", len(top2))
	}

	unliked, err := env.films.FindByID(ctx, f3.ID)
	if err != nil || unliked.LikesCount != 0 {
		t.Errorf("zero-like film lookup = %+v, %v", unliked, err)
	}

	for _, count := range []int{0, -1} {
		_, err := env.films.GetTopPopularFilms(ctx, count)
		assertValidationField(t, err, "count")
	}
}

func TestFilmService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	film := env.mustCreateFilm(t, "Short-lived")

	if err := env.films.Delete(ctx, film.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := env.films.FindByID(ctx, film.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted film still found: %v", err)
	}
	if err := env.films.Delete(ctx, film.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: got %v, want not found", err)
	}
}

func TestUserService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Create(ctx, domain.NewUserRequest{Email: "x@example.com", Login: "x", Birthday: datePtr(2000, time.January, 1)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.Name != "x" {
		t.Errorf("name = %q, want login", user.Name)
	}

	_, err = env.users.Create(ctx, domain.NewUserRequest{Email: "X@Example.com", Login: "y", Birthday: datePtr(2000, time.January, 1)})
	assertValidationField(t, err, "email")

	future := domain.Today().AddDate(0, 0, 1)
	_, err = env.users.Create(ctx, domain.NewUserRequest{Email: "z@example.com", Login: "z", Birthday: &domain.Date{Time: future}})
	assertValidationField(t, err, "birthday")
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustCreateUser(t, "a")
	b := env.mustCreateUser(t, "b")

	updated, err := env.users.Update(ctx, domain.UpdateUserRequest{ID: a.ID, Name: strPtr("Alice")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Alice" || updated.Email != a.Email || updated.Login != a.Login {
		t.Errorf("unexpected update result: %+v", updated)
	}

	_, err = env.users.Update(ctx, domain.UpdateUserRequest{ID: a.ID, Email: strPtr(b.Email)})
	assertValidationField(t, err, "email")

	if _, err := env.users.Update(ctx, domain.UpdateUserRequest{ID: a.ID, Email: strPtr(a.Email)}); err != nil {
		t.Errorf("keeping own email must succeed: %v", err)
	}

	if _, err := env.users.Update(ctx, domain.UpdateUserRequest{ID: 999, Name: strPtr("ghost")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing user: got %v, want not found", err)
	}
}

func TestUserService_Friends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustCreateUser(t, "a")
	b := env.mustCreateUser(t, "b")
	c := env.mustCreateUser(t, "c")
	d := env.mustCreateUser(t, "d")

	err := env.users.AddFriend(ctx, a.ID, a.ID)
	assertValidationField(t, err, "friendship")

	if err := env.users.AddFriend(ctx, a.ID, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown friend: got %v, want not found", err)
	}

	for _, edge := range [][2]int64{{a.ID, c.ID}, {a.ID, d.ID}, {b.ID, c.ID}, {b.ID, d.ID}, {a.ID, b.ID}, {a.ID, b.ID}} {
		if err := env.users.AddFriend(ctx, edge[0], edge[1]); err != nil {
			t.Fatalf("AddFriend %v failed: %v", edge, err)
		}
	}

	friends, err := env.users.GetFriends(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetFriends failed: %v", err)
	}
	if len(friends) != 3 || friends[0].ID != b.ID || friends[2].ID != d.ID {
		t.Errorf("friends of a = %+v", friends)
	}

	cFriends, _ := env.users.GetFriends(ctx, c.ID)
	if len(cFriends) != 0 {
		t.Errorf("friendship must be directed, friends of c = %+v", cFriends)
	}

	common, err := env.users.GetCommonFriends(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetCommonFriends failed: %v", err)
	}
	if len(common) != 2 || common[0].ID != c.ID || common[1].ID != d.ID {
		t.Errorf("common friends = %+v", common)
	}

	if err := env.users.RemoveFriend(ctx, a.ID, c.ID); err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if err := env.users.RemoveFriend(ctx, a.ID, c.ID); err != nil {
		t.Errorf("removing a missing edge must be a no-op: %v", err)
	}
	common, _ = env.users.GetCommonFriends(ctx, a.ID, b.ID)
	if len(common) != 1 || common[0].ID != d.ID {
		t.Errorf("common friends after removal = %+v", common)
	}

	if _, err := env.users.GetFriends(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("friends of unknown user: got %v, want not found", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustCreateUser(t, "a")
	b := env.mustCreateUser(t, "b")
	if err := env.users.AddFriend(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	if err := env.users.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	friends, _ := env.users.GetFriends(ctx, a.ID)
	if len(friends) != 0 {
		t.Errorf("friendship with deleted user remains: %+v", friends)
	}
	if err := env.users.Delete(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: got %v, want not found", err)
	}
}

func TestReferenceServices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	genres, err := env.genres.FindAll(ctx)
	if err != nil || len(genres) != 6 {
		t.Fatalf("genres = %v, %v", genres, err)
	}
	genre, err := env.genres.FindByID(ctx, 4)
	if err != nil || genre.Name != "Триллер" {
		t.Errorf("genre 4 = %+v, %v", genre, err)
	}
	if _, err := env.genres.FindByID(ctx, 100); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing genre: got %v", err)
	}

	ratings, err := env.ratings.FindAll(ctx)
	if err != nil || len(ratings) != 5 || ratings[4].Name != "NC-17" {
		t.Errorf("ratings = %v, %v", ratings, err)
	}

	env.genres.InvalidateCache()
	env.ratings.InvalidateCache()
	if _, err := env.ratings.FindByID(ctx, 1); err != nil {
		t.Errorf("reload after invalidation failed: %v", err)
	}
}

type recordingTx struct {
	inner store.TxManager
	calls atomic.Int32
}

func (r *recordingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls.Add(1)
	return r.inner.WithinTransaction(ctx, fn)
}

func TestDelete_RunsInsideTransaction(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := store.NewMemoryStores(logger)
	tx := &recordingTx{inner: stores.Tx}
	stores.Tx = tx
	genres := NewGenreService(stores.Genres, logger)
	ratings := NewRatingMpaaService(stores.Ratings, logger)
	users := NewUserService(stores, logger)
	env := &testEnv{
		films:   NewFilmService(stores, genres, ratings, users, logger),
		users:   users,
		genres:  genres,
		ratings: ratings,
	}
	ctx := context.Background()
	film := env.mustCreateFilm(t, "Transient")
	user := env.mustCreateUser(t, "transient")

	before := tx.calls.Load()
	if err := env.films.Delete(ctx, film.ID); err != nil {
		t.Fatalf("film Delete failed: %v", err)
	}
	if err := env.users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("user Delete failed: %v", err)
	}
	if got := tx.calls.Load() - before; got != 2 {
		t.Errorf("transactions opened by deletes = %d, want 2", got)
	}
}

func TestUserService_DeleteRacingLikeLeavesNoOrphans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	film := env.mustCreateFilm(t, "Contested")
	target := env.mustCreateUser(t, "target")

	for i := 0; i < 50; i++ {
		user := env.mustCreateUser(t, fmt.Sprintf("racer%d", i))
		var wg sync.WaitGroup
		wg.Add(3)
		go func() { defer wg.Done(); _ = env.films.LikeFilm(ctx, film.ID, user.ID) }()
		go func() { defer wg.Done(); _ = env.users.AddFriend(ctx, target.ID, user.ID) }()
		go func() { defer wg.Done(); _ = env.users.Delete(ctx, user.ID) }()
		wg.Wait()
	}

	got, err := env.films.FindByID(ctx, film.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.LikesCount != 0 {
		t.Errorf("likesCount = %d, want 0 after every liker was deleted", got.LikesCount)
	}
	friends, err := env.users.GetFriends(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetFriends failed: %v", err)
	}
	if len(friends) != 0 {
		t.Errorf("friends = %v, want none after every friend was deleted", friends)
	}
}
