package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbor-commerce/arbor/internal/catalog"
	"github.com/arbor-commerce/arbor/internal/shared"
)

// ErrInactiveProduct indicates an attempt to add a product that is not for
// sale.
var ErrInactiveProduct = errors.New("cart: product is not available")

// ErrQuantity indicates an out-of-range quantity.
var ErrQuantity = errors.New("cart: quantity out of range")

const maxLineQuantity = 99

// Products looks up catalog products for line snapshots.
type Products interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// Service manages anonymous carts. Tokens are opaque uuids minted on first
// write; the storefront carries them in a cookie or header.
type Service struct {
	store    *Store
	products Products
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(store *Store, products Products) *Service {
	return &Service{store: store, products: products, now: time.Now}
}

// Get returns the cart for a token. An unknown token yields an empty cart
// with the same token rather than an error, so expired carts degrade
// gracefully on the storefront.
func (s *Service) Get(ctx context.Context, token string) (Cart, error) {
	cart, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Cart{Token: token}, nil
		}
		return Cart{}, err
	}
	return cart, nil
}

// AddLine adds quantity of a product to the cart, minting a token when none
// is supplied. Adding an already-present product increases its quantity.
func (s *Service) AddLine(ctx context.Context, token string, productID int64, quantity int) (Cart, error) {
	if quantity <= 0 || quantity > maxLineQuantity {
		return Cart{}, ErrQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	if !product.IsActive {
		return Cart{}, ErrInactiveProduct
	}

	if token == "" {
		token = uuid.NewString()
	}
	cart, err := s.Get(ctx, token)
	if err != nil {
		return Cart{}, err
	}

	found := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity += quantity
			if cart.Lines[i].Quantity > maxLineQuantity {
				return Cart{}, ErrQuantity
			}
			found = true
			break
		}
	}
	if !found {
		cart.Lines = append(cart.Lines, Line{
			ProductID:  product.ID,
			Name:       product.Name,
			PriceCents: product.PriceCents,
			Currency:   product.Currency,
			Quantity:   quantity,
		})
	}

	return s.save(ctx, cart)
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, token string, productID int64, quantity int) (Cart, error) {
	if quantity < 0 || quantity > maxLineQuantity {
		return Cart{}, ErrQuantity
	}
	cart, err := s.store.Get(ctx, token)
	if err != nil {
		return Cart{}, err
	}

	for i := range cart.Lines {
		if cart.Lines[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		} else {
			cart.Lines[i].Quantity = quantity
		}
		return s.save(ctx, cart)
	}
	return Cart{}, fmt.Errorf("cart: line for product %d: %w", productID, shared.ErrNotFound)
}

// RemoveLine drops a product from the cart.
func (s *Service) RemoveLine(ctx context.Context, token string, productID int64) (Cart, error) {
	return s.SetQuantity(ctx, token, productID, 0)
}

// Clear deletes the cart. Checkout calls this after the order is placed.
func (s *Service) Clear(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}

func (s *Service) save(ctx context.Context, cart Cart) (Cart, error) {
	cart.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}
