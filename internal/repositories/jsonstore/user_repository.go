package jsonstore

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/collections"
)

type userRepository struct {
	store collections.Store
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	users, err := collections.ReadAll[domain.User](ctx, r.store, collections.Users)
	if err != nil {
		return nil, wrapError("users.list", err)
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, user := range users {
		if user.ID == userID {
			return user, nil
		}
	}
	return domain.User{}, notFoundError("users.find", fmt.Errorf("user %s not found", userID))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, notFoundError("users.find", fmt.Errorf("no user with email %s", email))
}

func (r *userRepository) Insert(ctx context.Context, user domain.User) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
			return conflictError("users.insert", fmt.Errorf("user %s already exists", user.ID))
		}
	}
	users = append(users, user)
	if err := collections.WriteAll(ctx, r.store, collections.Users, users); err != nil {
		return wrapError("users.insert", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user domain.User) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i, existing := range users {
		if existing.ID == user.ID {
			users[i] = user
			if err := collections.WriteAll(ctx, r.store, collections.Users, users); err != nil {
				return wrapError("users.update", err)
			}
			return nil
		}
	}
	return notFoundError("users.update", fmt.Errorf("user %s not found", user.ID))
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i, existing := range users {
		if existing.ID == userID {
			users = append(users[:i], users[i+1:]...)
			if err := collections.WriteAll(ctx, r.store, collections.Users, users); err != nil {
				return wrapError("users.delete", err)
			}
			return nil
		}
	}
	return notFoundError("users.delete", fmt.Errorf("user %s not found", userID))
}
