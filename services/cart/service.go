package cart

import (
    "context"
    "errors"
    "fmt"

    "github.com/shopspring/decimal"

    "pem-store-api/database"
    "pem-store-api/models"
)

// User-facing messages returned inside the cart envelope. The front-end shows
// them verbatim, so they stay in Spanish like the rest of the wire contract.
const (
    msgProductAdded    = "Producto agregado"
    msgQuantityUpdated = "Cantidad actualizada"
    msgCartCleared     = "Carrito vaciado"
    msgCartMerged      = "Carrito migrado exitosamente"
)

var (
    // ErrInvalidQuantity rejects quantities below 1.
    ErrInvalidQuantity = errors.New("La cantidad debe ser al menos 1")

    // ErrItemNotInCart is returned when modifying or removing a product the
    // cart does not hold.
    ErrItemNotInCart = errors.New("El producto no se encuentra en el carrito")
)

// NotFoundError covers missing carts and products (mapped to 404).
type NotFoundError struct {
    Kind string // "Carrito" or "Producto"
    ID   int64
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s con ID %d no encontrado", e.Kind, e.ID)
}

// NotAvailableError: the product exists but cannot be sold right now.
type NotAvailableError struct {
    Name string
}

func (e *NotAvailableError) Error() string {
    return fmt.Sprintf("El producto '%s' no está disponible", e.Name)
}

// InsufficientStockError: the requested quantity exceeds remaining stock.
type InsufficientStockError struct {
    Name      string
    Available int
    Requested int
}

func (e *InsufficientStockError) Error() string {
    if e.Name != "" {
        return fmt.Sprintf("Stock insuficiente para '%s'. Disponible: %d, Solicitado: %d",
            e.Name, e.Available, e.Requested)
    }
    return fmt.Sprintf("Stock insuficiente. Disponible: %d", e.Available)
}

// Store is the persistence surface the service needs. *database.Connection
// implements it; tests plug in an in-memory fake.
type Store interface {
    CreateCart(ctx context.Context, customerID *int64) (models.Cart, error)
    GetCart(ctx context.Context, cartID int64) (models.Cart, error)
    GetCartByCustomer(ctx context.Context, customerID int64) (models.Cart, error)
    DeleteCart(ctx context.Context, cartID int64) error
    GetProductByID(ctx context.Context, productID int64) (models.Product, error)
    GetCartItem(ctx context.Context, cartID, productID int64) (models.CartItem, error)
    GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
    SaveCartItem(ctx context.Context, cartID, productID int64, quantity int) (models.CartItem, error)
    DeleteCartItem(ctx context.Context, cartID, productID int64) error
    ClearCart(ctx context.Context, cartID int64) (int, error)
    CartDetail(ctx context.Context, cartID int64) (models.CartDetail, error)
}

type Service struct {
    store Store
}

func NewService(store Store) *Service {
    return &Service{store: store}
}

// GetOrCreateCart returns the customer's cart (creating one on first use) or
// a fresh anonymous cart when no customer is given.
func (s *Service) GetOrCreateCart(ctx context.Context, customerID *int64) (models.Cart, error) {
    if customerID != nil {
        cart, err := s.store.GetCartByCustomer(ctx, *customerID)
        if err == nil {
            return cart, nil
        }
        if !errors.Is(err, database.ErrNotFound) {
            return models.Cart{}, err
        }
    }
    return s.store.CreateCart(ctx, customerID)
}

// Detail returns the rendered cart state.
func (s *Service) Detail(ctx context.Context, cartID int64) (models.CartDetail, error) {
    detail, err := s.store.CartDetail(ctx, cartID)
    if errors.Is(err, database.ErrNotFound) {
        return models.CartDetail{}, &NotFoundError{Kind: "Carrito", ID: cartID}
    }
    return detail, err
}

// AddProduct agrega un producto al carrito o acumula sobre la cantidad
// existente, validando disponibilidad y stock.
func (s *Service) AddProduct(ctx context.Context, cartID, productID int64, quantity int) (models.CartItemDetail, string, error) {
    if quantity < 1 {
        return models.CartItemDetail{}, "", ErrInvalidQuantity
    }

    if _, err := s.store.GetCart(ctx, cartID); err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return models.CartItemDetail{}, "", &NotFoundError{Kind: "Carrito", ID: cartID}
        }
        return models.CartItemDetail{}, "", err
    }

    product, err := s.store.GetProductByID(ctx, productID)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return models.CartItemDetail{}, "", &NotFoundError{Kind: "Producto", ID: productID}
        }
        return models.CartItemDetail{}, "", err
    }

    if product.IsSoldOut() {
        return models.CartItemDetail{}, "", &NotAvailableError{Name: product.Name}
    }

    newQuantity := quantity
    created := true
    existing, err := s.store.GetCartItem(ctx, cartID, productID)
    if err == nil {
        newQuantity = existing.Quantity + quantity
        created = false
    } else if !errors.Is(err, database.ErrNotFound) {
        return models.CartItemDetail{}, "", err
    }

    if newQuantity > product.Stock {
        return models.CartItemDetail{}, "", &InsufficientStockError{
            Name:      product.Name,
            Available: product.Stock,
            Requested: newQuantity,
        }
    }

    item, err := s.store.SaveCartItem(ctx, cartID, productID, newQuantity)
    if err != nil {
        return models.CartItemDetail{}, "", err
    }

    message := msgProductAdded
    if !created {
        message = msgQuantityUpdated
    }
    return itemDetail(item, product), message, nil
}

// UpdateQuantity replaces the quantity of a product already in the cart.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, productID int64, quantity int) (models.CartItemDetail, string, error) {
    if quantity < 1 {
        return models.CartItemDetail{}, "", ErrInvalidQuantity
    }

    if _, err := s.store.GetCartItem(ctx, cartID, productID); err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return models.CartItemDetail{}, "", ErrItemNotInCart
        }
        return models.CartItemDetail{}, "", err
    }

    product, err := s.store.GetProductByID(ctx, productID)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return models.CartItemDetail{}, "", &NotFoundError{Kind: "Producto", ID: productID}
        }
        return models.CartItemDetail{}, "", err
    }

    if quantity > product.Stock {
        return models.CartItemDetail{}, "", &InsufficientStockError{
            Available: product.Stock,
            Requested: quantity,
        }
    }

    item, err := s.store.SaveCartItem(ctx, cartID, productID, quantity)
    if err != nil {
        return models.CartItemDetail{}, "", err
    }

    return itemDetail(item, product), msgQuantityUpdated, nil
}

// RemoveProduct deletes a product row from the cart.
func (s *Service) RemoveProduct(ctx context.Context, cartID, productID int64) (string, error) {
    item, err := s.store.GetCartItem(ctx, cartID, productID)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return "", ErrItemNotInCart
        }
        return "", err
    }

    product, err := s.store.GetProductByID(ctx, item.ProductID)
    if err != nil && !errors.Is(err, database.ErrNotFound) {
        return "", err
    }

    if err := s.store.DeleteCartItem(ctx, cartID, productID); err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return "", ErrItemNotInCart
        }
        return "", err
    }

    // Si el producto desapareció del catálogo no hay nombre que mostrar.
    if product.Name == "" {
        return "Producto eliminado del carrito", nil
    }
    return fmt.Sprintf("'%s' eliminado del carrito", product.Name), nil
}

// Clear removes every item from the cart and reports how many went away.
func (s *Service) Clear(ctx context.Context, cartID int64) (int, string, error) {
    if _, err := s.store.GetCart(ctx, cartID); err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return 0, "", &NotFoundError{Kind: "Carrito", ID: cartID}
        }
        return 0, "", err
    }

    removed, err := s.store.ClearCart(ctx, cartID)
    if err != nil {
        return 0, "", err
    }
    return removed, msgCartCleared, nil
}

// Merge migra un carrito anónimo al carrito del cliente: combines quantities
// per product (capped at stock), then drops the anonymous cart.
func (s *Service) Merge(ctx context.Context, anonCartID, customerID int64) (models.CartMergeResult, string, error) {
    anonCart, err := s.store.GetCart(ctx, anonCartID)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return models.CartMergeResult{}, "", &NotFoundError{Kind: "Carrito", ID: anonCartID}
        }
        return models.CartMergeResult{}, "", err
    }
    if anonCart.CustomerID != nil {
        return models.CartMergeResult{}, "", errors.New("El carrito ya tiene un cliente asociado")
    }

    target, err := s.GetOrCreateCart(ctx, &customerID)
    if err != nil {
        return models.CartMergeResult{}, "", err
    }

    items, err := s.store.GetCartItems(ctx, anonCartID)
    if err != nil {
        return models.CartMergeResult{}, "", err
    }

    result := models.CartMergeResult{CartID: target.ID}
    for _, item := range items {
        product, err := s.store.GetProductByID(ctx, item.ProductID)
        if err != nil {
            if errors.Is(err, database.ErrNotFound) {
                continue
            }
            return models.CartMergeResult{}, "", err
        }

        existing, err := s.store.GetCartItem(ctx, target.ID, item.ProductID)
        switch {
        case err == nil:
            combined := existing.Quantity + item.Quantity
            if combined > product.Stock {
                combined = product.Stock
            }
            if _, err := s.store.SaveCartItem(ctx, target.ID, item.ProductID, combined); err != nil {
                return models.CartMergeResult{}, "", err
            }
            result.ItemsCombined++
        case errors.Is(err, database.ErrNotFound):
            quantity := item.Quantity
            if quantity > product.Stock {
                quantity = product.Stock
            }
            if quantity > 0 {
                if _, err := s.store.SaveCartItem(ctx, target.ID, item.ProductID, quantity); err != nil {
                    return models.CartMergeResult{}, "", err
                }
            }
            result.ItemsMigrated++
        default:
            return models.CartMergeResult{}, "", err
        }
    }

    if err := s.store.DeleteCart(ctx, anonCartID); err != nil {
        return models.CartMergeResult{}, "", err
    }

    return result, msgCartMerged, nil
}

func itemDetail(item models.CartItem, product models.Product) models.CartItemDetail {
    unit := product.CurrentPrice()
    return models.CartItemDetail{
        ItemID: item.ID,
        Product: models.ProductSnapshot{
            ID:        product.ID,
            Name:      product.Name,
            Brand:     product.BrandName,
            UnitPrice: unit,
            HasOffer:  product.HasOffer(),
            Image:     product.Image,
        },
        Quantity: item.Quantity,
        Subtotal: unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
    }
}
