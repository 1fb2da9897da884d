package services

import (
	"context"
	"errors"

	domain "github.com/simple-store/api/internal/domain"
)

// stubRepoError satisfies repositories.RepositoryError for simulating
// categorised persistence failures.
type stubRepoError struct {
	msg         string
	notFound    bool
	unavailable bool
}

func (e *stubRepoError) Error() string       { return e.msg }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return false }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

func notFoundErr(msg string) error {
	return &stubRepoError{msg: msg, notFound: true}
}

type stubProductRepository struct {
	listFunc       func(ctx context.Context) ([]domain.Product, error)
	findFunc       func(ctx context.Context, productID int) (domain.Product, error)
	insertFunc     func(ctx context.Context, product domain.Product) error
	updateFunc     func(ctx context.Context, product domain.Product) error
	deleteFunc     func(ctx context.Context, productID int) (domain.Product, error)
	replaceAllFunc func(ctx context.Context, products []domain.Product) error
}

func (s *stubProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx)
}

func (s *stubProductRepository) FindByID(ctx context.Context, productID int) (domain.Product, error) {
	if s.findFunc == nil {
		return domain.Product{}, notFoundErr("product not found")
	}
	return s.findFunc(ctx, productID)
}

func (s *stubProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFunc == nil {
		return errors.New("unexpected Insert call")
	}
	return s.insertFunc(ctx, product)
}

func (s *stubProductRepository) Update(ctx context.Context, product domain.Product) error {
	if s.updateFunc == nil {
		return errors.New("unexpected Update call")
	}
	return s.updateFunc(ctx, product)
}

func (s *stubProductRepository) Delete(ctx context.Context, productID int) (domain.Product, error) {
	if s.deleteFunc == nil {
		return domain.Product{}, errors.New("unexpected Delete call")
	}
	return s.deleteFunc(ctx, productID)
}

func (s *stubProductRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	if s.replaceAllFunc == nil {
		return errors.New("unexpected ReplaceAll call")
	}
	return s.replaceAllFunc(ctx, products)
}

type stubCartRepository struct {
	listFunc       func(ctx context.Context) ([]domain.CartLine, error)
	replaceAllFunc func(ctx context.Context, lines []domain.CartLine) error
	clearFunc      func(ctx context.Context) error
}

func (s *stubCartRepository) List(ctx context.Context) ([]domain.CartLine, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx)
}

func (s *stubCartRepository) ReplaceAll(ctx context.Context, lines []domain.CartLine) error {
	if s.replaceAllFunc == nil {
		return errors.New("unexpected ReplaceAll call")
	}
	return s.replaceAllFunc(ctx, lines)
}

func (s *stubCartRepository) Clear(ctx context.Context) error {
	if s.clearFunc == nil {
		return errors.New("unexpected Clear call")
	}
	return s.clearFunc(ctx)
}

type stubBuyNowRepository struct {
	getFunc    func(ctx context.Context, userID string) (domain.BuyNowIntent, error)
	putFunc    func(ctx context.Context, intent domain.BuyNowIntent) error
	deleteFunc func(ctx context.Context, userID string) error
}

func (s *stubBuyNowRepository) Get(ctx context.Context, userID string) (domain.BuyNowIntent, error) {
	if s.getFunc == nil {
		return domain.BuyNowIntent{}, notFoundErr("buy now intent not found")
	}
	return s.getFunc(ctx, userID)
}

func (s *stubBuyNowRepository) Put(ctx context.Context, intent domain.BuyNowIntent) error {
	if s.putFunc == nil {
		return errors.New("unexpected Put call")
	}
	return s.putFunc(ctx, intent)
}

func (s *stubBuyNowRepository) Delete(ctx context.Context, userID string) error {
	if s.deleteFunc == nil {
		return errors.New("unexpected Delete call")
	}
	return s.deleteFunc(ctx, userID)
}

type stubOrderRepository struct {
	listFunc       func(ctx context.Context) ([]domain.Order, error)
	listByUserFunc func(ctx context.Context, userID string) ([]domain.Order, error)
	findFunc       func(ctx context.Context, orderID int) (domain.Order, error)
	appendFunc     func(ctx context.Context, order domain.Order) error
	updateFunc     func(ctx context.Context, order domain.Order) error
	resetFunc      func(ctx context.Context) error
}

func (s *stubOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx)
}

func (s *stubOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if s.listByUserFunc == nil {
		return nil, nil
	}
	return s.listByUserFunc(ctx, userID)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID int) (domain.Order, error) {
	if s.findFunc == nil {
		return domain.Order{}, notFoundErr("order not found")
	}
	return s.findFunc(ctx, orderID)
}

func (s *stubOrderRepository) Append(ctx context.Context, order domain.Order) error {
	if s.appendFunc == nil {
		return errors.New("unexpected Append call")
	}
	return s.appendFunc(ctx, order)
}

func (s *stubOrderRepository) Update(ctx context.Context, order domain.Order) error {
	if s.updateFunc == nil {
		return errors.New("unexpected Update call")
	}
	return s.updateFunc(ctx, order)
}

func (s *stubOrderRepository) Reset(ctx context.Context) error {
	if s.resetFunc == nil {
		return errors.New("unexpected Reset call")
	}
	return s.resetFunc(ctx)
}

type stubAddressRepository struct {
	listFunc       func(ctx context.Context) ([]domain.Address, error)
	listByUserFunc func(ctx context.Context, userID string) ([]domain.Address, error)
	findFunc       func(ctx context.Context, addressID int) (domain.Address, error)
	replaceAllFunc func(ctx context.Context, addresses []domain.Address) error
}

func (s *stubAddressRepository) List(ctx context.Context) ([]domain.Address, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx)
}

func (s *stubAddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	if s.listByUserFunc == nil {
		return nil, nil
	}
	return s.listByUserFunc(ctx, userID)
}

func (s *stubAddressRepository) FindByID(ctx context.Context, addressID int) (domain.Address, error) {
	if s.findFunc == nil {
		return domain.Address{}, notFoundErr("address not found")
	}
	return s.findFunc(ctx, addressID)
}

func (s *stubAddressRepository) ReplaceAll(ctx context.Context, addresses []domain.Address) error {
	if s.replaceAllFunc == nil {
		return errors.New("unexpected ReplaceAll call")
	}
	return s.replaceAllFunc(ctx, addresses)
}

type stubUserRepository struct {
	listFunc        func(ctx context.Context) ([]domain.User, error)
	findFunc        func(ctx context.Context, userID string) (domain.User, error)
	findByEmailFunc func(ctx context.Context, email string) (domain.User, error)
	insertFunc      func(ctx context.Context, user domain.User) error
	updateFunc      func(ctx context.Context, user domain.User) error
	deleteFunc      func(ctx context.Context, userID string) error
}

func (s *stubUserRepository) List(ctx context.Context) ([]domain.User, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx)
}

func (s *stubUserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if s.findFunc == nil {
		return domain.User{}, notFoundErr("user not found")
	}
	return s.findFunc(ctx, userID)
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if s.findByEmailFunc == nil {
		return domain.User{}, notFoundErr("user not found")
	}
	return s.findByEmailFunc(ctx, email)
}

func (s *stubUserRepository) Insert(ctx context.Context, user domain.User) error {
	if s.insertFunc == nil {
		return errors.New("unexpected Insert call")
	}
	return s.insertFunc(ctx, user)
}

func (s *stubUserRepository) Update(ctx context.Context, user domain.User) error {
	if s.updateFunc == nil {
		return errors.New("unexpected Update call")
	}
	return s.updateFunc(ctx, user)
}

func (s *stubUserRepository) Delete(ctx context.Context, userID string) error {
	if s.deleteFunc == nil {
		return errors.New("unexpected Delete call")
	}
	return s.deleteFunc(ctx, userID)
}

type stubReviewRepository struct {
	listFunc          func(ctx context.Context) ([]domain.Review, error)
	listByProductFunc func(ctx context.Context, productID int) ([]domain.Review, error)
	findFunc          func(ctx context.Context, reviewID int) (domain.Review, error)
	insertFunc        func(ctx context.Context, review domain.Review) error
	updateFunc        func(ctx context.Context, review domain.Review) error
	deleteFunc        func(ctx context.Context, reviewID int) error
}

func (s *stubReviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx)
}

func (s *stubReviewRepository) ListByProduct(ctx context.Context, productID int) ([]domain.Review, error) {
	if s.listByProductFunc == nil {
		return nil, nil
	}
	return s.listByProductFunc(ctx, productID)
}

func (s *stubReviewRepository) FindByID(ctx context.Context, reviewID int) (domain.Review, error) {
	if s.findFunc == nil {
		return domain.Review{}, notFoundErr("review not found")
	}
	return s.findFunc(ctx, reviewID)
}

func (s *stubReviewRepository) Insert(ctx context.Context, review domain.Review) error {
	if s.insertFunc == nil {
		return errors.New("unexpected Insert call")
	}
	return s.insertFunc(ctx, review)
}

func (s *stubReviewRepository) Update(ctx context.Context, review domain.Review) error {
	if s.updateFunc == nil {
		return errors.New("unexpected Update call")
	}
	return s.updateFunc(ctx, review)
}

func (s *stubReviewRepository) Delete(ctx context.Context, reviewID int) error {
	if s.deleteFunc == nil {
		return errors.New("unexpected Delete call")
	}
	return s.deleteFunc(ctx, reviewID)
}

type stubPasswordResetRepository struct {
	findFunc   func(ctx context.Context, token string) (domain.PasswordResetToken, error)
	putFunc    func(ctx context.Context, token domain.PasswordResetToken) error
	deleteFunc func(ctx context.Context, token string) error
}

func (s *stubPasswordResetRepository) Find(ctx context.Context, token string) (domain.PasswordResetToken, error) {
	if s.findFunc == nil {
		return domain.PasswordResetToken{}, notFoundErr("reset token not found")
	}
	return s.findFunc(ctx, token)
}

func (s *stubPasswordResetRepository) Put(ctx context.Context, token domain.PasswordResetToken) error {
	if s.putFunc == nil {
		return errors.New("unexpected Put call")
	}
	return s.putFunc(ctx, token)
}

func (s *stubPasswordResetRepository) Delete(ctx context.Context, token string) error {
	if s.deleteFunc == nil {
		return errors.New("unexpected Delete call")
	}
	return s.deleteFunc(ctx, token)
}

type stubCache struct {
	invalidated []string
}

func (s *stubCache) Invalidate(name string) {
	s.invalidated = append(s.invalidated, name)
}
