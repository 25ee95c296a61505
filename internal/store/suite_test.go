package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"filmorate/internal/domain"
)

// runStoreSuite проверяет контракт хранилищ, общий для обоих бэкендов.
func runStoreSuite(t *testing.T, stores *Stores) {
	t.Helper()
	ctx := context.Background()

	newFilm := func(name string) *domain.Film {
		film := &domain.Film{
			Name:        name,
			Description: "Description of " + name,
			ReleaseDate: domain.NewDate(2010, time.July, 16),
			Duration:    148,
			Mpa:         domain.RatingMpaa{ID: 3, Name: "PG-13"},
		}
		if err := stores.Films.Create(ctx, film); err != nil {
			t.Fatalf("Create film %s failed: %v", name, err)
		}
		return film
	}
	newUser := func(email string) *domain.User {
		user := &domain.User{Email: email, Login: email, Name: email, Birthday: domain.NewDate(1990, time.May, 1)}
		if err := stores.Users.Create(ctx, user); err != nil {
			t.Fatalf("Create user %s failed: %v", email, err)
		}
		return user
	}

	t.Run("film crud", func(t *testing.T) {
		film := newFilm("Inception")
		if film.ID <= 0 {
			t.Fatalf("expected generated id, got %d", film.ID)
		}

		got, err := stores.Films.GetByID(ctx, film.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Name != "Inception" || got.Mpa.Name != "PG-13" || !got.ReleaseDate.Equal(film.ReleaseDate.Time) {
			t.Errorf("unexpected film: %+v", got)
		}

		got.Name = "Inception (director's cut)"
		if err := stores.Films.Update(ctx, got); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		updated, _ := stores.Films.GetByID(ctx, film.ID)
		if updated.Name != "Inception (director's cut)" {
			t.Errorf("Update not applied: %+v", updated)
		}

		if err := stores.Films.Update(ctx, &domain.Film{ID: 999999, Name: "x", Description: "xx", ReleaseDate: film.ReleaseDate, Duration: 1, Mpa: film.Mpa}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update of missing film: got %v, want ErrNotFound", err)
		}
		if _, err := stores.Films.GetByID(ctx, 999999); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID of missing film: got %v, want ErrNotFound", err)
		}
		exists, err := stores.Films.Exists(ctx, film.ID)
		if err != nil || !exists {
			t.Errorf("Exists = %v, %v; want true", exists, err)
		}
	})

	t.Run("film genres replace and batch read", func(t *testing.T) {
		a := newFilm("A")
		b := newFilm("B")
		if err := stores.FilmGenres.ReplaceForFilm(ctx, a.ID, []int64{2, 1}); err != nil {
			t.Fatalf("ReplaceForFilm failed: %v", err)
		}

		byFilm, err := stores.FilmGenres.GenresByFilmIDs(ctx, []int64{a.ID, b.ID})
		if err != nil {
			t.Fatalf("GenresByFilmIDs failed: %v", err)
		}
		want := []domain.Genre{{ID: 1, Name: "Комедия"}, {ID: 2, Name: "Драма"}}
		if !reflect.DeepEqual(byFilm[a.ID], want) {
			t.Errorf("genres of A = %v, want %v", byFilm[a.ID], want)
		}
		if _, ok := byFilm[b.ID]; ok {
			t.Errorf("film B must have no genres entry")
		}

		if err := stores.FilmGenres.ReplaceForFilm(ctx, a.ID, nil); err != nil {
			t.Fatalf("clearing genres failed: %v", err)
		}
		byFilm, _ = stores.FilmGenres.GenresByFilmIDs(ctx, []int64{a.ID})
		if len(byFilm[a.ID]) != 0 {
			t.Errorf("genres not cleared: %v", byFilm[a.ID])
		}
	})

	t.Run("likes and popularity", func(t *testing.T) {
		f1 := newFilm("Popular")
		f2 := newFilm("Less popular")
		newFilm("Unliked")
		u1 := newUser("likes1@example.com")
		u2 := newUser("likes2@example.com")

		for _, like := range [][2]int64{{f1.ID, u1.ID}, {f1.ID, u2.ID}, {f2.ID, u1.ID}} {
			added, err := stores.Likes.Add(ctx, like[0], like[1])
			if err != nil || !added {
				t.Fatalf("Add like %v = %v, %v", like, added, err)
			}
		}
		added, err := stores.Likes.Add(ctx, f1.ID, u1.ID)
		if err != nil || added {
			t.Errorf("duplicate like: added=%v err=%v, want false, nil", added, err)
		}

		popular, err := stores.Likes.Popular(ctx, 10)
		if err != nil {
			t.Fatalf("Popular failed: %v", err)
		}
		if len(popular) < 2 || popular[0].FilmID != f1.ID || popular[0].Likes != 2 {
			t.Fatalf("unexpected ranking: %+v", popular)
		}
		for _, p := range popular {
			if p.Likes == 0 {
				t.Errorf("zero-like film %d in ranking", p.FilmID)
			}
		}
		top1, _ := stores.Likes.Popular(ctx, 1)
		if len(top1) != 1 {
			t.Errorf("limit not applied: %+v", top1)
		}

		counts, err := stores.Likes.CountByFilmIDs(ctx, []int64{f1.ID, f2.ID})
		if err != nil {
			t.Fatalf("CountByFilmIDs failed: %v", err)
		}
		if counts[f1.ID] != 2 || counts[f2.ID] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}

		removed, err := stores.Likes.Remove(ctx, f2.ID, u1.ID)
		if err != nil || !removed {
			t.Errorf("Remove = %v, %v; want true", removed, err)
		}
		removed, _ = stores.Likes.Remove(ctx, f2.ID, u1.ID)
		if removed {
			t.Error("second Remove must report false")
		}
	})

	t.Run("users email uniqueness", func(t *testing.T) {
		u := newUser("unique@example.com")
		dup := &domain.User{Email: "unique@example.com", Login: "dup", Name: "dup", Birthday: u.Birthday}
		if err := stores.Users.Create(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("duplicate email: got %v, want ErrAlreadyExists", err)
		}

		other := newUser("other@example.com")
		other.Email = "unique@example.com"
		if err := stores.Users.Update(ctx, other); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("update to taken email: got %v, want ErrAlreadyExists", err)
		}

		byEmail, err := stores.Users.GetByEmail(ctx, "unique@example.com")
		if err != nil || byEmail.ID != u.ID {
			t.Errorf("GetByEmail = %+v, %v", byEmail, err)
		}
	})

	t.Run("friendship is directed", func(t *testing.T) {
		a := newUser("a@example.com")
		b := newUser("b@example.com")
		c := newUser("c@example.com")

		for _, edge := range [][2]int64{{a.ID, c.ID}, {b.ID, c.ID}, {a.ID, b.ID}, {a.ID, b.ID}} {
			if err := stores.Friends.Add(ctx, edge[0], edge[1]); err != nil {
				t.Fatalf("Add friend %v failed: %v", edge, err)
			}
		}

		ids, _ := stores.Friends.FriendIDs(ctx, a.ID)
		if !reflect.DeepEqual(ids, []int64{b.ID, c.ID}) {
			t.Errorf("friends of a = %v", ids)
		}
		ids, _ = stores.Friends.FriendIDs(ctx, c.ID)
		if len(ids) != 0 {
			t.Errorf("edge must not be mirrored, friends of c = %v", ids)
		}

		common, _ := stores.Friends.CommonFriendIDs(ctx, a.ID, b.ID)
		if !reflect.DeepEqual(common, []int64{c.ID}) {
			t.Errorf("common friends = %v, want [%d]", common, c.ID)
		}

		if err := stores.Friends.Remove(ctx, c.ID, a.ID); err != nil {
			t.Errorf("removing a missing edge must not fail: %v", err)
		}

		users, _ := stores.Users.ListByIDs(ctx, []int64{c.ID, b.ID})
		if len(users) != 2 || users[0].ID != b.ID {
			t.Errorf("ListByIDs must be ordered by id: %+v", users)
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		film := newFilm("Doomed")
		user := newUser("doomed@example.com")
		friend := newUser("friend-of-doomed@example.com")
		if _, err := stores.Likes.Add(ctx, film.ID, user.ID); err != nil {
			t.Fatalf("Add like failed: %v", err)
		}
		if err := stores.Friends.Add(ctx, friend.ID, user.ID); err != nil {
			t.Fatalf("Add friend failed: %v", err)
		}

		if err := stores.Users.Delete(ctx, user.ID); err != nil {
			t.Fatalf("Delete user failed: %v", err)
		}
		counts, _ := stores.Likes.CountByFilmIDs(ctx, []int64{film.ID})
		if counts[film.ID] != 0 {
			t.Errorf("likes of deleted user remain: %v", counts)
		}
		ids, _ := stores.Friends.FriendIDs(ctx, friend.ID)
		if len(ids) != 0 {
			t.Errorf("friendship with deleted user remains: %v", ids)
		}

		if err := stores.Films.Delete(ctx, film.ID); err != nil {
			t.Fatalf("Delete film failed: %v", err)
		}
		if err := stores.Films.Delete(ctx, film.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("reference tables", func(t *testing.T) {
		genres, err := stores.Genres.List(ctx)
		if err != nil || !reflect.DeepEqual(genres, DefaultGenres) {
			t.Errorf("genres = %v, %v", genres, err)
		}
		ratings, err := stores.Ratings.List(ctx)
		if err != nil || !reflect.DeepEqual(ratings, DefaultRatings) {
			t.Errorf("ratings = %v, %v", ratings, err)
		}
	})
}
