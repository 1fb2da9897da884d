package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/repositories"
)

// passwordMinLength is the shortest password accepted at registration and reset.
const passwordMinLength = 6

// resetTokenTTL bounds how long a password reset link stays usable.
const resetTokenTTL = time.Hour

var (
	// ErrUserInvalidInput signals the caller provided invalid data.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates the account could not be located.
	ErrUserNotFound = errors.New("user: not found")
	// ErrEmailTaken indicates another account already owns the email.
	ErrEmailTaken = errors.New("user: email already exists")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("user: invalid email or password")
	// ErrLastAdmin blocks deleting the only remaining admin account.
	ErrLastAdmin = errors.New("user: cannot delete the last admin user")
	// ErrUserAddressNotFound indicates the address does not exist or belongs
	// to someone else.
	ErrUserAddressNotFound = errors.New("user: address not found")
	// ErrResetTokenInvalid covers unknown, consumed, and expired reset tokens.
	ErrResetTokenInvalid = errors.New("user: invalid or expired reset token")
)

// UserServiceDeps bundles collaborators required to construct the user service.
type UserServiceDeps struct {
	Users          repositories.UserRepository
	Addresses      repositories.AddressRepository
	PasswordResets repositories.PasswordResetRepository
	Clock          func() time.Time
	TokenGenerator func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	users    repositories.UserRepository
	addrs    repositories.AddressRepository
	resets   repositories.PasswordResetRepository
	clock    func() time.Time
	newToken func() string
	logger   func(context.Context, string, map[string]any)
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("user service: address repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	newToken := deps.TokenGenerator
	if newToken == nil {
		newToken = func() string {
			return uuid.NewString()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &userService{
		users:    deps.Users,
		addrs:    deps.Addresses,
		resets:   deps.PasswordResets,
		clock: func() time.Time {
			return clock().UTC()
		},
		newToken: newToken,
		logger:   logger,
	}, nil
}

func (s *userService) Register(ctx context.Context, cmd RegisterCommand) (User, error) {
	username := strings.TrimSpace(cmd.Username)
	email := normalizeEmail(cmd.Email)

	if username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrUserInvalidInput)
	}
	if email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrUserInvalidInput)
	}
	if len(cmd.Password) < passwordMinLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, passwordMinLength)
	}

	role := cmd.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if role != domain.RoleCustomer && role != domain.RoleAdmin {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, role)
	}

	existing, err := s.users.List(ctx)
	if err != nil {
		return User{}, err
	}
	for _, user := range existing {
		if normalizeEmail(user.Email) == email {
			return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("user: hashing password: %w", err)
	}

	user := User{
		ID:           nextUserID(existing),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.clock(),
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return User{}, err
	}

	s.logger(ctx, "user.registered", map[string]any{
		"userId": user.ID,
		"role":   string(user.Role),
	})

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return User{}, fmt.Errorf("%w: user %s", ErrUserNotFound, userID)
		}
		return User{}, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// UpdateProfile rewrites the account's editable fields. An empty password keeps
// the current hash; a non-empty one is validated and rehashed.
func (s *userService) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (User, error) {
	user, err := s.GetUser(ctx, cmd.UserID)
	if err != nil {
		return User{}, err
	}

	if username := strings.TrimSpace(cmd.Username); username != "" {
		user.Username = username
	}

	if email := normalizeEmail(cmd.Email); email != "" && email != normalizeEmail(user.Email) {
		others, err := s.users.List(ctx)
		if err != nil {
			return User{}, err
		}
		for _, other := range others {
			if other.ID != user.ID && normalizeEmail(other.Email) == email {
				return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
			}
		}
		user.Email = email
	}

	if cmd.Password != "" {
		if len(cmd.Password) < passwordMinLength {
			return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, passwordMinLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("user: hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	now := s.clock()
	user.UpdatedAt = &now

	if err := s.users.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes the account. The store always keeps at least one admin so
// the back office cannot lock itself out.
func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.Role == domain.RoleAdmin {
		users, err := s.users.List(ctx)
		if err != nil {
			return err
		}
		admins := 0
		for _, u := range users {
			if u.Role == domain.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger(ctx, "user.deleted", map[string]any{"userId": user.ID})
	return nil
}

func (s *userService) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	return s.addrs.ListByUser(ctx, userID)
}

func (s *userService) CreateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error) {
	if err := validateAddressCommand(cmd); err != nil {
		return Address{}, err
	}

	all, err := s.addrs.List(ctx)
	if err != nil {
		return Address{}, err
	}

	// When the new entry becomes the default, every other default the user
	// holds is cleared in the same write.
	if cmd.IsDefault {
		for i := range all {
			if all[i].UserID == cmd.UserID {
				all[i].IsDefault = false
			}
		}
	}

	address := addressFromCommand(cmd)
	address.ID = nextAddressID(all)
	address.CreatedAt = s.clock()
	all = append(all, address)

	if err := s.addrs.ReplaceAll(ctx, all); err != nil {
		return Address{}, err
	}
	return address, nil
}

func (s *userService) UpdateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error) {
	if err := validateAddressCommand(cmd); err != nil {
		return Address{}, err
	}

	all, err := s.addrs.List(ctx)
	if err != nil {
		return Address{}, err
	}

	idx := -1
	for i := range all {
		if all[i].ID == cmd.ID && all[i].UserID == cmd.UserID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Address{}, fmt.Errorf("%w: address %d", ErrUserAddressNotFound, cmd.ID)
	}

	if cmd.IsDefault {
		for i := range all {
			if all[i].UserID == cmd.UserID && i != idx {
				all[i].IsDefault = false
			}
		}
	}

	now := s.clock()
	updated := addressFromCommand(cmd)
	updated.ID = all[idx].ID
	updated.CreatedAt = all[idx].CreatedAt
	updated.UpdatedAt = &now
	all[idx] = updated

	if err := s.addrs.ReplaceAll(ctx, all); err != nil {
		return Address{}, err
	}
	return updated, nil
}

func (s *userService) DeleteAddress(ctx context.Context, userID string, addressID int) (Address, error) {
	userID = strings.TrimSpace(userID)

	all, err := s.addrs.List(ctx)
	if err != nil {
		return Address{}, err
	}

	idx := -1
	for i := range all {
		if all[i].ID == addressID && all[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Address{}, fmt.Errorf("%w: address %d", ErrUserAddressNotFound, addressID)
	}

	deleted := all[idx]
	all = append(all[:idx], all[idx+1:]...)

	if err := s.addrs.ReplaceAll(ctx, all); err != nil {
		return Address{}, err
	}
	return deleted, nil
}

// SetDefaultAddress makes the given address the user's single default in one
// atomic rewrite of the collection.
func (s *userService) SetDefaultAddress(ctx context.Context, userID string, addressID int) error {
	userID = strings.TrimSpace(userID)

	all, err := s.addrs.List(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range all {
		if all[i].UserID != userID {
			continue
		}
		all[i].IsDefault = all[i].ID == addressID
		if all[i].IsDefault {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: address %d", ErrUserAddressNotFound, addressID)
	}

	return s.addrs.ReplaceAll(ctx, all)
}

// RequestPasswordReset issues a fresh single-use token for the account. The
// caller decides how much of the result to reveal; unknown emails surface
// ErrUserNotFound here.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) (PasswordResetToken, error) {
	if s.resets == nil {
		return PasswordResetToken{}, errors.New("user service: password reset repository not configured")
	}

	email = normalizeEmail(email)
	if email == "" {
		return PasswordResetToken{}, fmt.Errorf("%w: email is required", ErrUserInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return PasswordResetToken{}, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return PasswordResetToken{}, err
	}

	now := s.clock()
	token := PasswordResetToken{
		Token:     s.newToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}

	if err := s.resets.Put(ctx, token); err != nil {
		return PasswordResetToken{}, err
	}

	s.logger(ctx, "user.password_reset.requested", map[string]any{"userId": user.ID})
	return token, nil
}

// ResetPassword consumes the token and installs the new password. Expired and
// unknown tokens are indistinguishable to the caller.
func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.resets == nil {
		return errors.New("user service: password reset repository not configured")
	}
	if len(newPassword) < passwordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, passwordMinLength)
	}

	stored, err := s.resets.Find(ctx, strings.TrimSpace(token))
	if err != nil {
		if isNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if s.clock().After(stored.ExpiresAt) {
		// Expired tokens are removed on first touch.
		_ = s.resets.Delete(ctx, stored.Token)
		return ErrResetTokenInvalid
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if isNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("user: hashing password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.resets.Delete(ctx, stored.Token); err != nil && !isNotFound(err) {
		return err
	}

	s.logger(ctx, "user.password_reset.completed", map[string]any{"userId": user.ID})
	return nil
}

func validateAddressCommand(cmd UpsertAddressCommand) error {
	if strings.TrimSpace(cmd.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	for field, value := range map[string]string{
		"label":       cmd.Label,
		"full name":   cmd.FullName,
		"phone":       cmd.Phone,
		"street":      cmd.Street,
		"city":        cmd.City,
		"postal code": cmd.PostalCode,
		"country":     cmd.Country,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrUserInvalidInput, field)
		}
	}
	return nil
}

func addressFromCommand(cmd UpsertAddressCommand) Address {
	return Address{
		UserID:     strings.TrimSpace(cmd.UserID),
		Label:      strings.TrimSpace(cmd.Label),
		FullName:   strings.TrimSpace(cmd.FullName),
		Phone:      strings.TrimSpace(cmd.Phone),
		Street:     strings.TrimSpace(cmd.Street),
		City:       strings.TrimSpace(cmd.City),
		State:      strings.TrimSpace(cmd.State),
		PostalCode: strings.TrimSpace(cmd.PostalCode),
		Country:    strings.TrimSpace(cmd.Country),
		IsDefault:  cmd.IsDefault,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nextUserID allocates the next numeric-string id, tolerating legacy ids that
// do not parse as integers.
func nextUserID(users []domain.User) string {
	max := 0
	for _, user := range users {
		if id, err := strconv.Atoi(user.ID); err == nil && id > max {
			max = id
		}
	}
	return strconv.Itoa(max + 1)
}

func nextAddressID(addresses []domain.Address) int {
	next := 1
	for _, address := range addresses {
		if address.ID >= next {
			next = address.ID + 1
		}
	}
	return next
}
