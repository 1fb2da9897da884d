package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	domain "github.com/simple-store/api/internal/domain"
)

func newUserServiceForTest(t *testing.T, deps UserServiceDeps) UserService {
	t.Helper()
	if deps.Users == nil {
		deps.Users = &stubUserRepository{}
	}
	if deps.Addresses == nil {
		deps.Addresses = &stubAddressRepository{}
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC) }
	}
	service, err := NewUserService(deps)
	if err != nil {
		t.Fatalf("NewUserService: %v", err)
	}
	return service
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func TestRegisterNormalizesEmailAndHashesPassword(t *testing.T) {
	var inserted domain.User
	users := &stubUserRepository{
		listFunc: func(context.Context) ([]domain.User, error) {
			return []domain.User{{ID: "4", Email: "taken@example.com"}}, nil
		},
		insertFunc: func(_ context.Context, user domain.User) error {
			inserted = user
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})
	got, err := service.Register(context.Background(), RegisterCommand{
		Username: " dana ",
		Email:    " Dana@Example.COM ",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got.ID != "5" {
		t.Fatalf("expected next id 5, got %s", got.ID)
	}
	if got.Email != "dana@example.com" {
		t.Fatalf("expected lowercased email, got %q", got.Email)
	}
	if got.Username != "dana" {
		t.Fatalf("expected trimmed username, got %q", got.Username)
	}
	if got.Role != domain.RoleCustomer {
		t.Fatalf("expected default customer role, got %s", got.Role)
	}
	if inserted.PasswordHash == "" || inserted.PasswordHash == "hunter22" {
		t.Fatal("expected password to be hashed before insert")
	}
	if bcrypt.CompareHashAndPassword([]byte(inserted.PasswordHash), []byte("hunter22")) != nil {
		t.Fatal("stored hash does not verify the password")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := &stubUserRepository{
		listFunc: func(context.Context) ([]domain.User, error) {
			return []domain.User{{ID: "1", Email: "dana@example.com"}}, nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})
	_, err := service.Register(context.Background(), RegisterCommand{
		Username: "dana2",
		Email:    "DANA@example.com",
		Password: "hunter22",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service := newUserServiceForTest(t, UserServiceDeps{})
	cases := []RegisterCommand{
		{Username: "", Email: "a@b.com", Password: "hunter22"},
		{Username: "dana", Email: "", Password: "hunter22"},
		{Username: "dana", Email: "a@b.com", Password: "short"},
		{Username: "dana", Email: "a@b.com", Password: "hunter22", Role: domain.Role("owner")},
	}
	for _, cmd := range cases {
		if _, err := service.Register(context.Background(), cmd); !errors.Is(err, ErrUserInvalidInput) {
			t.Fatalf("expected ErrUserInvalidInput for %#v, got %v", cmd, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	hash := hashPassword(t, "hunter22")
	users := &stubUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (domain.User, error) {
			if email != "dana@example.com" {
				return domain.User{}, notFoundErr("user not found")
			}
			return domain.User{ID: "1", Email: email, PasswordHash: hash}, nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})

	got, err := service.Authenticate(context.Background(), "Dana@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != "1" {
		t.Fatalf("expected user 1, got %s", got.ID)
	}

	if _, err := service.Authenticate(context.Background(), "dana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUpdateProfileKeepsHashWhenPasswordEmpty(t *testing.T) {
	var updated domain.User
	users := &stubUserRepository{
		findFunc: func(_ context.Context, userID string) (domain.User, error) {
			return domain.User{ID: userID, Username: "dana", Email: "dana@example.com", PasswordHash: "keep-me"}, nil
		},
		updateFunc: func(_ context.Context, user domain.User) error {
			updated = user
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})
	got, err := service.UpdateProfile(context.Background(), UpdateProfileCommand{
		UserID:   "1",
		Username: "dana-updated",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if got.Username != "dana-updated" {
		t.Fatalf("expected new username, got %q", got.Username)
	}
	if updated.PasswordHash != "keep-me" {
		t.Fatalf("expected untouched hash, got %q", updated.PasswordHash)
	}
	if got.UpdatedAt == nil {
		t.Fatal("expected updatedAt stamp")
	}
}

func TestUpdateProfileRejectsEmailOwnedByAnother(t *testing.T) {
	users := &stubUserRepository{
		findFunc: func(_ context.Context, userID string) (domain.User, error) {
			return domain.User{ID: userID, Email: "dana@example.com"}, nil
		},
		listFunc: func(context.Context) ([]domain.User, error) {
			return []domain.User{
				{ID: "1", Email: "dana@example.com"},
				{ID: "2", Email: "taken@example.com"},
			}, nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})
	_, err := service.UpdateProfile(context.Background(), UpdateProfileCommand{
		UserID: "1",
		Email:  "Taken@example.com",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestDeleteUserProtectsLastAdmin(t *testing.T) {
	users := &stubUserRepository{
		findFunc: func(_ context.Context, userID string) (domain.User, error) {
			return domain.User{ID: userID, Role: domain.RoleAdmin}, nil
		},
		listFunc: func(context.Context) ([]domain.User, error) {
			return []domain.User{
				{ID: "1", Role: domain.RoleAdmin},
				{ID: "2", Role: domain.RoleCustomer},
			}, nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})
	if err := service.DeleteUser(context.Background(), "1"); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
}

func TestDeleteUserAllowsSecondAdmin(t *testing.T) {
	deletedID := ""
	users := &stubUserRepository{
		findFunc: func(_ context.Context, userID string) (domain.User, error) {
			return domain.User{ID: userID, Role: domain.RoleAdmin}, nil
		},
		listFunc: func(context.Context) ([]domain.User, error) {
			return []domain.User{
				{ID: "1", Role: domain.RoleAdmin},
				{ID: "2", Role: domain.RoleAdmin},
			}, nil
		},
		deleteFunc: func(_ context.Context, userID string) error {
			deletedID = userID
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Users: users})
	if err := service.DeleteUser(context.Background(), "2"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if deletedID != "2" {
		t.Fatalf("expected user 2 deleted, got %q", deletedID)
	}
}

func TestCreateAddressDefaultClearsOthers(t *testing.T) {
	var saved []domain.Address
	addrs := &stubAddressRepository{
		listFunc: func(context.Context) ([]domain.Address, error) {
			return []domain.Address{
				{ID: 1, UserID: "3", Label: "Home", IsDefault: true},
				{ID: 2, UserID: "9", Label: "Home", IsDefault: true},
			}, nil
		},
		replaceAllFunc: func(_ context.Context, addresses []domain.Address) error {
			saved = addresses
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Addresses: addrs})
	got, err := service.CreateAddress(context.Background(), UpsertAddressCommand{
		UserID:     "3",
		Label:      "Work",
		FullName:   "Dana Li",
		Phone:      "555-0101",
		Street:     "9 Oak Avenue",
		City:       "Springfield",
		PostalCode: "62702",
		Country:    "USA",
		IsDefault:  true,
	})
	if err != nil {
		t.Fatalf("CreateAddress: %v", err)
	}

	if got.ID != 3 {
		t.Fatalf("expected id 3, got %d", got.ID)
	}
	for _, address := range saved {
		switch address.ID {
		case 1:
			if address.IsDefault {
				t.Fatal("expected previous default cleared")
			}
		case 2:
			// Another user's default must survive.
			if !address.IsDefault {
				t.Fatal("expected other user's default untouched")
			}
		case 3:
			if !address.IsDefault {
				t.Fatal("expected new address to be the default")
			}
		}
	}
}

func TestUpdateAddressOwnedByAnotherUser(t *testing.T) {
	addrs := &stubAddressRepository{
		listFunc: func(context.Context) ([]domain.Address, error) {
			return []domain.Address{{ID: 1, UserID: "9", Label: "Home"}}, nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Addresses: addrs})
	_, err := service.UpdateAddress(context.Background(), UpsertAddressCommand{
		ID:         1,
		UserID:     "3",
		Label:      "Home",
		FullName:   "Dana Li",
		Phone:      "555-0101",
		Street:     "9 Oak Avenue",
		City:       "Springfield",
		PostalCode: "62702",
		Country:    "USA",
	})
	if !errors.Is(err, ErrUserAddressNotFound) {
		t.Fatalf("expected ErrUserAddressNotFound, got %v", err)
	}
}

func TestSetDefaultAddressSingleDefault(t *testing.T) {
	var saved []domain.Address
	addrs := &stubAddressRepository{
		listFunc: func(context.Context) ([]domain.Address, error) {
			return []domain.Address{
				{ID: 1, UserID: "3", IsDefault: true},
				{ID: 2, UserID: "3"},
			}, nil
		},
		replaceAllFunc: func(_ context.Context, addresses []domain.Address) error {
			saved = addresses
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{Addresses: addrs})
	if err := service.SetDefaultAddress(context.Background(), "3", 2); err != nil {
		t.Fatalf("SetDefaultAddress: %v", err)
	}

	if saved[0].IsDefault || !saved[1].IsDefault {
		t.Fatalf("expected only address 2 default, got %#v", saved)
	}
}

func TestRequestPasswordResetIssuesToken(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	var stored domain.PasswordResetToken
	resets := &stubPasswordResetRepository{
		putFunc: func(_ context.Context, token domain.PasswordResetToken) error {
			stored = token
			return nil
		},
	}
	users := &stubUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (domain.User, error) {
			return domain.User{ID: "1", Email: email}, nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{
		Users:          users,
		PasswordResets: resets,
		Clock:          func() time.Time { return now },
		TokenGenerator: func() string { return "fixed-token" },
	})

	token, err := service.RequestPasswordReset(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if token.Token != "fixed-token" || token.UserID != "1" {
		t.Fatalf("unexpected token %#v", token)
	}
	if !token.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected one-hour expiry, got %s", token.ExpiresAt)
	}
	if stored.Token != "fixed-token" {
		t.Fatalf("expected token persisted, got %#v", stored)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	service := newUserServiceForTest(t, UserServiceDeps{
		PasswordResets: &stubPasswordResetRepository{},
	})
	_, err := service.RequestPasswordReset(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResetPasswordConsumesToken(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	tokenDeleted := false
	resets := &stubPasswordResetRepository{
		findFunc: func(_ context.Context, token string) (domain.PasswordResetToken, error) {
			return domain.PasswordResetToken{Token: token, UserID: "1", ExpiresAt: now.Add(time.Minute)}, nil
		},
		deleteFunc: func(context.Context, string) error {
			tokenDeleted = true
			return nil
		},
	}
	var updated domain.User
	users := &stubUserRepository{
		findFunc: func(_ context.Context, userID string) (domain.User, error) {
			return domain.User{ID: userID, PasswordHash: "old"}, nil
		},
		updateFunc: func(_ context.Context, user domain.User) error {
			updated = user
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{
		Users:          users,
		PasswordResets: resets,
		Clock:          func() time.Time { return now },
	})

	if err := service.ResetPassword(context.Background(), "tok-1", "newpassword"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if updated.PasswordHash == "old" {
		t.Fatal("expected password hash replaced")
	}
	if !tokenDeleted {
		t.Fatal("expected reset token consumed")
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	tokenDeleted := false
	resets := &stubPasswordResetRepository{
		findFunc: func(_ context.Context, token string) (domain.PasswordResetToken, error) {
			return domain.PasswordResetToken{Token: token, UserID: "1", ExpiresAt: now.Add(-time.Minute)}, nil
		},
		deleteFunc: func(context.Context, string) error {
			tokenDeleted = true
			return nil
		},
	}

	service := newUserServiceForTest(t, UserServiceDeps{
		PasswordResets: resets,
		Clock:          func() time.Time { return now },
	})

	if err := service.ResetPassword(context.Background(), "tok-1", "newpassword"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
	if !tokenDeleted {
		t.Fatal("expected expired token removed")
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	service := newUserServiceForTest(t, UserServiceDeps{
		PasswordResets: &stubPasswordResetRepository{},
	})
	if err := service.ResetPassword(context.Background(), "missing", "newpassword"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}
