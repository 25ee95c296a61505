package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filmorate/internal/domain"
	"filmorate/internal/store"
)

// UserService правила работы с пользователями и дружбой.
type UserService struct {
	users   store.UserStore
	friends store.FriendshipStore
	tx      store.TxManager
	logger  *slog.Logger
}

func NewUserService(stores *store.Stores, logger *slog.Logger) *UserService {
	return &UserService{
		users:   stores.Users,
		friends: stores.Friends,
		tx:      stores.Tx,
		logger:  logger,
	}
}

func validateBirthday(birthday domain.Date) error {
	if birthday.AfterDate(domain.Today()) {
		return domain.NewValidationError("birthday", "birthday must not be in the future", birthday.String())
	}
	return nil
}

func duplicateEmailError(email string) error {
	return domain.NewValidationError("email", "user with this email already exists", email)
}

// ensureEmailFree проверяет, что email не занят другим пользователем.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up email: %w", err)
	case existing.ID != ownerID:
		return duplicateEmailError(email)
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, req domain.NewUserRequest) (domain.UserDto, error) {
	user := domain.NewUserFromRequest(req)
	if err := validateBirthday(user.Birthday); err != nil {
		return domain.UserDto{}, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, user.Email, 0); err != nil {
			return err
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return duplicateEmailError(user.Email)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.UserDto{}, err
	}

	s.logger.InfoContext(ctx, "User created", slog.Int64("userID", user.ID), slog.String("login", user.Login))
	return domain.UserToDto(user), nil
}

// Update применяет только переданные поля.
func (s *UserService) Update(ctx context.Context, req domain.UpdateUserRequest) (domain.UserDto, error) {
	if req.Birthday != nil {
		if err := validateBirthday(*req.Birthday); err != nil {
			return domain.UserDto{}, err
		}
	}

	var user *domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.getUser(ctx, req.ID)
		if err != nil {
			return err
		}
		domain.ApplyUserUpdate(user, req)
		if req.Email != nil {
			if err := s.ensureEmailFree(ctx, user.Email, user.ID); err != nil {
				return err
			}
		}
		if err := s.users.Update(ctx, user); err != nil {
			switch {
			case errors.Is(err, store.ErrAlreadyExists):
				return duplicateEmailError(user.Email)
			case errors.Is(err, store.ErrNotFound):
				return userNotFound(req.ID)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.UserDto{}, err
	}

	s.logger.InfoContext(ctx, "User updated", slog.Int64("userID", user.ID))
	return domain.UserToDto(user), nil
}

func userNotFound(id int64) error {
	return domain.NotFoundf("user with id %d not found", id)
}

func (s *UserService) getUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (domain.UserDto, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return domain.UserDto{}, err
	}
	return domain.UserToDto(user), nil
}

// FindAll возвращает пользователей по возрастанию id.
func (s *UserService) FindAll(ctx context.Context) ([]domain.UserDto, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return domain.UsersToDto(users), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return userNotFound(id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "User deleted", slog.Int64("userID", id))
	return nil
}

// CheckExists возвращает NotFoundError, если пользователя нет.
func (s *UserService) CheckExists(ctx context.Context, id int64) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return userNotFound(id)
	}
	return nil
}

func (s *UserService) checkPair(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return domain.NewValidationError("friendship", "user cannot be friends with themselves", userID)
	}
	if err := s.CheckExists(ctx, userID); err != nil {
		return err
	}
	return s.CheckExists(ctx, friendID)
}

// AddFriend добавляет направленное ребро userID -> friendID. Повторное добавление не ошибка.
func (s *UserService) AddFriend(ctx context.Context, userID, friendID int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkPair(ctx, userID, friendID); err != nil {
			return err
		}
		if err := s.friends.Add(ctx, userID, friendID); err != nil {
			return fmt.Errorf("failed to add friend: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Friend added", slog.Int64("userID", userID), slog.Int64("friendID", friendID))
	return nil
}

// RemoveFriend удаляет ребро userID -> friendID, если оно есть.
func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkPair(ctx, userID, friendID); err != nil {
			return err
		}
		if err := s.friends.Remove(ctx, userID, friendID); err != nil {
			return fmt.Errorf("failed to remove friend: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Friend removed", slog.Int64("userID", userID), slog.Int64("friendID", friendID))
	return nil
}

// GetFriends возвращает друзей пользователя по возрастанию id.
func (s *UserService) GetFriends(ctx context.Context, userID int64) ([]domain.UserDto, error) {
	if err := s.CheckExists(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return s.usersByIDs(ctx, ids)
}

// GetCommonFriends возвращает пересечение друзей двух пользователей.
func (s *UserService) GetCommonFriends(ctx context.Context, userID, otherID int64) ([]domain.UserDto, error) {
	if err := s.CheckExists(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.CheckExists(ctx, otherID); err != nil {
		return nil, err
	}
	ids, err := s.friends.CommonFriendIDs(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get common friends: %w", err)
	}
	return s.usersByIDs(ctx, ids)
}

func (s *UserService) usersByIDs(ctx context.Context, ids []int64) ([]domain.UserDto, error) {
	if len(ids) == 0 {
		return []domain.UserDto{}, nil
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return domain.UsersToDto(users), nil
}
