// handlers/cart_test.go
package handlers

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/gorilla/mux"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "pem-store-api/config"
    "pem-store-api/database"
    "pem-store-api/models"
    "pem-store-api/services/cart"
)

// memStore implements cart.Store in memory for handler tests.
type memStore struct {
    nextID   int64
    carts    map[int64]models.Cart
    items    map[int64]map[int64]models.CartItem
    products map[int64]models.Product
}

func newMemStore() *memStore {
    return &memStore{
        nextID:   1,
        carts:    make(map[int64]models.Cart),
        items:    make(map[int64]map[int64]models.CartItem),
        products: make(map[int64]models.Product),
    }
}

func (m *memStore) CreateCart(ctx context.Context, customerID *int64) (models.Cart, error) {
    c := models.Cart{ID: m.nextID, CustomerID: customerID}
    m.nextID++
    m.carts[c.ID] = c
    m.items[c.ID] = make(map[int64]models.CartItem)
    return c, nil
}

func (m *memStore) GetCart(ctx context.Context, cartID int64) (models.Cart, error) {
    c, ok := m.carts[cartID]
    if !ok {
        return models.Cart{}, database.ErrNotFound
    }
    return c, nil
}

func (m *memStore) GetCartByCustomer(ctx context.Context, customerID int64) (models.Cart, error) {
    for _, c := range m.carts {
        if c.CustomerID != nil && *c.CustomerID == customerID {
            return c, nil
        }
    }
    return models.Cart{}, database.ErrNotFound
}

func (m *memStore) DeleteCart(ctx context.Context, cartID int64) error {
    delete(m.carts, cartID)
    delete(m.items, cartID)
    return nil
}

func (m *memStore) GetProductByID(ctx context.Context, productID int64) (models.Product, error) {
    p, ok := m.products[productID]
    if !ok {
        return models.Product{}, database.ErrNotFound
    }
    return p, nil
}

func (m *memStore) GetCartItem(ctx context.Context, cartID, productID int64) (models.CartItem, error) {
    item, ok := m.items[cartID][productID]
    if !ok {
        return models.CartItem{}, database.ErrNotFound
    }
    return item, nil
}

func (m *memStore) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
    var out []models.CartItem
    for _, item := range m.items[cartID] {
        out = append(out, item)
    }
    return out, nil
}

func (m *memStore) SaveCartItem(ctx context.Context, cartID, productID int64, quantity int) (models.CartItem, error) {
    item, ok := m.items[cartID][productID]
    if !ok {
        item = models.CartItem{ID: m.nextID, CartID: cartID, ProductID: productID}
        m.nextID++
    }
    item.Quantity = quantity
    m.items[cartID][productID] = item
    return item, nil
}

func (m *memStore) DeleteCartItem(ctx context.Context, cartID, productID int64) error {
    if _, ok := m.items[cartID][productID]; !ok {
        return database.ErrNotFound
    }
    delete(m.items[cartID], productID)
    return nil
}

func (m *memStore) ClearCart(ctx context.Context, cartID int64) (int, error) {
    removed := len(m.items[cartID])
    m.items[cartID] = make(map[int64]models.CartItem)
    return removed, nil
}

func (m *memStore) CartDetail(ctx context.Context, cartID int64) (models.CartDetail, error) {
    if _, ok := m.carts[cartID]; !ok {
        return models.CartDetail{}, database.ErrNotFound
    }
    detail := models.CartDetail{
        CartID:   cartID,
        Items:    []models.CartItemDetail{},
        Subtotal: decimal.Zero,
    }
    for _, item := range m.items[cartID] {
        p := m.products[item.ProductID]
        unit := p.CurrentPrice()
        subtotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
        detail.Items = append(detail.Items, models.CartItemDetail{
            ItemID:   item.ID,
            Quantity: item.Quantity,
            Subtotal: subtotal,
            Product:  models.ProductSnapshot{ID: p.ID, Name: p.Name, UnitPrice: unit},
        })
        detail.TotalItems += item.Quantity
        detail.Subtotal = detail.Subtotal.Add(subtotal)
    }
    detail.IsEmpty = detail.TotalItems == 0
    return detail, nil
}

func newCartTestServer(t *testing.T) (*mux.Router, *memStore) {
    t.Helper()

    store := newMemStore()
    price, _ := decimal.NewFromString("9.99")
    store.products[1] = models.Product{
        ID: 1, Name: "Pelota mordedora", Price: price,
        Stock: 10, IsAvailable: true,
    }

    cfg := &config.Config{}
    cfg.Session.Secret = "test-session-secret"
    cfg.Session.MaxAge = 3600

    handler := NewCartHandler(cart.NewService(store), cfg)

    router := mux.NewRouter()
    api := router.PathPrefix("/api/carrito").Subrouter()
    api.HandleFunc("/", handler.GetCart).Methods("GET")
    api.HandleFunc("/agregar/", handler.AddToCart).Methods("POST")
    api.HandleFunc("/modificar/", handler.UpdateQuantity).Methods("PUT")
    api.HandleFunc("/eliminar/{id}/", handler.RemoveFromCart).Methods("DELETE")
    api.HandleFunc("/vaciar/", handler.ClearCart).Methods("DELETE")
    return router, store
}

func doJSON(router *mux.Router, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set("Content-Type", "application/json")
    } else {
        req = httptest.NewRequest(method, path, nil)
    }
    for _, c := range cookies {
        req.AddCookie(c)
    }
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)
    return rec
}

func TestGetCartEmpty(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "GET", "/api/carrito/", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)

    var resp models.CartAPIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.True(t, resp.Success)
    require.NotNil(t, resp.Cart)
    assert.True(t, resp.Cart.IsEmpty)
    assert.Empty(t, resp.Cart.Items)
}

func TestAddToCart(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "POST", "/api/carrito/agregar/",
        `{"producto_id": 1, "cantidad": 2}`, nil)
    require.Equal(t, http.StatusOK, rec.Code)

    var resp models.CartAPIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.True(t, resp.Success)
    assert.Equal(t, "Producto agregado", resp.Message)
    require.NotNil(t, resp.Item)
    assert.Equal(t, 2, resp.Item.Quantity)
    require.NotNil(t, resp.Cart)
    assert.Equal(t, 2, resp.Cart.TotalItems)
    assert.NotEmpty(t, rec.Result().Cookies(), "debe emitir la cookie de sesión")
}

func TestAddToCartAccumulatesAcrossRequests(t *testing.T) {
    router, _ := newCartTestServer(t)

    first := doJSON(router, "POST", "/api/carrito/agregar/",
        `{"producto_id": 1, "cantidad": 2}`, nil)
    require.Equal(t, http.StatusOK, first.Code)

    second := doJSON(router, "POST", "/api/carrito/agregar/",
        `{"producto_id": 1, "cantidad": 3}`, first.Result().Cookies())
    require.Equal(t, http.StatusOK, second.Code)

    var resp models.CartAPIResponse
    require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
    assert.Equal(t, "Cantidad actualizada", resp.Message)
    assert.Equal(t, 5, resp.Cart.TotalItems)
}

func TestAddToCartDefaultQuantity(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "POST", "/api/carrito/agregar/", `{"producto_id": 1}`, nil)
    require.Equal(t, http.StatusOK, rec.Code)

    var resp models.CartAPIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, 1, resp.Item.Quantity)
}

func TestAddToCartValidation(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "POST", "/api/carrito/agregar/", `{no es json}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = doJSON(router, "POST", "/api/carrito/agregar/", `{"cantidad": 2}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    var errResp models.CartAPIError
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
    assert.True(t, errResp.Error)
    assert.Equal(t, "producto_id es requerido", errResp.Message)

    rec = doJSON(router, "POST", "/api/carrito/agregar/",
        `{"producto_id": 1, "cantidad": 0}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
    assert.Equal(t, "La cantidad debe ser al menos 1", errResp.Message)
}

func TestAddToCartUnknownProduct(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "POST", "/api/carrito/agregar/", `{"producto_id": 42}`, nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)

    var errResp models.CartAPIError
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
    assert.Equal(t, "Producto con ID 42 no encontrado", errResp.Message)
}

func TestAddToCartInsufficientStock(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "POST", "/api/carrito/agregar/",
        `{"producto_id": 1, "cantidad": 11}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    var errResp models.CartAPIError
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
    assert.Contains(t, errResp.Message, "Stock insuficiente")
}

func TestUpdateQuantityRequiresCantidad(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "PUT", "/api/carrito/modificar/", `{"producto_id": 1}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    var errResp models.CartAPIError
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
    assert.Equal(t, "cantidad es requerida", errResp.Message)
}

func TestUpdateQuantityNotInCart(t *testing.T) {
    router, _ := newCartTestServer(t)

    rec := doJSON(router, "PUT", "/api/carrito/modificar/",
        `{"producto_id": 1, "cantidad": 2}`, nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)

    var errResp models.CartAPIError
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
    assert.Equal(t, "El producto no se encuentra en el carrito", errResp.Message)
}

func TestRemoveFromCart(t *testing.T) {
    router, _ := newCartTestServer(t)

    first := doJSON(router, "POST", "/api/carrito/agregar/", `{"producto_id": 1}`, nil)
    require.Equal(t, http.StatusOK, first.Code)

    rec := doJSON(router, "DELETE", "/api/carrito/eliminar/1/", "", first.Result().Cookies())
    require.Equal(t, http.StatusOK, rec.Code)

    var resp models.CartAPIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "'Pelota mordedora' eliminado del carrito", resp.Message)
    require.NotNil(t, resp.Cart)
    assert.True(t, resp.Cart.IsEmpty)
}

func TestClearCart(t *testing.T) {
    router, _ := newCartTestServer(t)

    first := doJSON(router, "POST", "/api/carrito/agregar/",
        `{"producto_id": 1, "cantidad": 3}`, nil)
    require.Equal(t, http.StatusOK, first.Code)

    rec := doJSON(router, "DELETE", "/api/carrito/vaciar/", "", first.Result().Cookies())
    require.Equal(t, http.StatusOK, rec.Code)

    var resp models.CartAPIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "Carrito vaciado", resp.Message)
    assert.Equal(t, 1, resp.Removed)
    assert.True(t, resp.Cart.IsEmpty)
}
