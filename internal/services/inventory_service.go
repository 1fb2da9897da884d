package services

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound indicates a requested product id has no catalog entry.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrInvalidQuantity indicates a requested quantity below one.
	ErrInvalidQuantity = errors.New("inventory: quantity must be at least 1")
)

// StockError reports a line whose requested quantity exceeds available stock.
// It always carries both numbers so the client can adjust the quantity.
type StockError struct {
	ProductID int
	Name      string
	Available int
	Requested int
}

// Error implements the error interface.
func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. Available: %d, Requested: %d", e.Name, e.Available, e.Requested)
}

type inventoryGuard struct{}

// NewInventoryGuard constructs the stock validator used by checkout.
func NewInventoryGuard() InventoryGuard {
	return inventoryGuard{}
}

// ValidateItems checks every line against the supplied snapshot, in order,
// and stops at the first violation. On success each returned item carries a
// frozen copy of the product's name, price and image; later catalog edits
// never alter an order built from these items.
func (inventoryGuard) ValidateItems(lines []LineRequest, products []Product) ([]OrderItem, error) {
	byID := make(map[int]Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d requested %d", ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, line.ProductID)
		}
		if line.Quantity > product.Stock {
			return nil, &StockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}
		items = append(items, OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
			Image:     product.Image,
		})
	}
	return items, nil
}
