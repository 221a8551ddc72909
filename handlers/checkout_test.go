// handlers/checkout_test.go
package handlers

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "pem-store-api/database"
    "pem-store-api/middleware"
    "pem-store-api/models"
    "pem-store-api/queue"
    "pem-store-api/services/cart"
)

// fakeCheckoutTx registra las llamadas de la transacción de checkout.
type fakeCheckoutTx struct {
    store *memStore

    order      *models.Order
    items      []models.OrderItem
    decrements map[int64]int
    clearedID  int64
    committed  bool
    rolledBack bool

    // decrementHook corre antes de cada DecrementStock para simular
    // concurrencia sobre el inventario.
    decrementHook func()
}

func (t *fakeCheckoutTx) InsertOrder(order *models.Order) error {
    order.ID = 100
    t.order = order
    return nil
}

func (t *fakeCheckoutTx) InsertOrderItem(item *models.OrderItem) error {
    item.ID = int64(len(t.items) + 1)
    t.items = append(t.items, *item)
    return nil
}

func (t *fakeCheckoutTx) DecrementStock(productID int64, quantity int) error {
    if t.decrementHook != nil {
        t.decrementHook()
        t.decrementHook = nil
    }
    p, ok := t.store.products[productID]
    if !ok || p.Stock < quantity {
        return database.ErrInsufficientStock
    }
    p.Stock -= quantity
    t.store.products[productID] = p
    t.decrements[productID] += quantity
    return nil
}

func (t *fakeCheckoutTx) ClearCart(cartID int64) error {
    t.clearedID = cartID
    t.store.items[cartID] = make(map[int64]models.CartItem)
    return nil
}

func (t *fakeCheckoutTx) Commit() error {
    t.committed = true
    return nil
}

func (t *fakeCheckoutTx) Rollback() error {
    if !t.committed {
        t.rolledBack = true
    }
    return nil
}

type fakeCheckoutStore struct {
    *memStore
    tx    *fakeCheckoutTx
    begun bool
}

func (s *fakeCheckoutStore) BeginCheckout() (checkoutTx, error) {
    s.begun = true
    return s.tx, nil
}

type fakeEnqueuer struct {
    jobs []struct {
        jobType queue.JobType
        data    map[string]interface{}
    }
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error {
    f.jobs = append(f.jobs, struct {
        jobType queue.JobType
        data    map[string]interface{}
    }{jobType, data})
    return nil
}

type checkoutFixture struct {
    handler *CheckoutHandler
    store   *fakeCheckoutStore
    queue   *fakeEnqueuer
    cartID  int64
    user    *models.AuthUser
}

// newCheckoutFixture monta un cliente autenticado con carrito propio:
// producto 1 en oferta (7.99) x2 y producto 2 (4.50) x1.
func newCheckoutFixture(t *testing.T) *checkoutFixture {
    t.Helper()
    ctx := context.Background()

    mem := newMemStore()
    offer := decimal.RequireFromString("7.99")
    mem.products[1] = models.Product{
        ID: 1, Name: "Pelota mordedora",
        Price: decimal.RequireFromString("9.99"), OfferPrice: &offer,
        Stock: 10, IsAvailable: true,
    }
    mem.products[2] = models.Product{
        ID: 2, Name: "Hueso de goma",
        Price: decimal.RequireFromString("4.50"),
        Stock: 2, IsAvailable: true,
    }

    user := &models.AuthUser{CustomerID: 7, Email: "ana@example.com", FirstName: "Ana"}
    customerCart, err := mem.CreateCart(ctx, &user.CustomerID)
    require.NoError(t, err)
    _, err = mem.SaveCartItem(ctx, customerCart.ID, 1, 2)
    require.NoError(t, err)
    _, err = mem.SaveCartItem(ctx, customerCart.ID, 2, 1)
    require.NoError(t, err)

    store := &fakeCheckoutStore{
        memStore: mem,
        tx:       &fakeCheckoutTx{store: mem, decrements: make(map[int64]int)},
    }
    enq := &fakeEnqueuer{}

    return &checkoutFixture{
        handler: &CheckoutHandler{
            store:       store,
            cartService: cart.NewService(mem),
            jobQueue:    enq,
        },
        store:  store,
        queue:  enq,
        cartID: customerCart.ID,
        user:   user,
    }
}

func (f *checkoutFixture) doCheckout(body string) *httptest.ResponseRecorder {
    req := httptest.NewRequest("POST", "/api/carrito/procesar-pago/", strings.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    if f.user != nil {
        ctx := context.WithValue(req.Context(), middleware.UserContextKey, f.user)
        req = req.WithContext(ctx)
    }
    rec := httptest.NewRecorder()
    f.handler.ProcessCheckout(rec, req)
    return rec
}

func TestProcessCheckoutCreatesOrder(t *testing.T) {
    f := newCheckoutFixture(t)

    rec := f.doCheckout(`{"direccion_envio": "Calle Luna 8", "telefono": "611222333"}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

    var resp struct {
        Status  string          `json:"status"`
        Message string          `json:"message"`
        Data    json.RawMessage `json:"data"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "success", resp.Status)
    assert.Equal(t, "Pedido creado exitosamente", resp.Message)

    var order models.Order
    require.NoError(t, json.Unmarshal(resp.Data, &order))
    assert.Regexp(t, `^PED-\d{14}-[0-9A-F]{8}$`, order.OrderNumber)
    assert.Equal(t, models.OrderStatusPending, order.Status)

    // 2 x 7.99 (precio de oferta congelado) + 1 x 4.50
    assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("20.48")), order.Subtotal.String())
    assert.True(t, order.Total.Equal(decimal.RequireFromString("20.48")), order.Total.String())

    tx := f.store.tx
    assert.True(t, tx.committed)
    require.Len(t, tx.items, 2)
    byProduct := make(map[int64]models.OrderItem)
    for _, item := range tx.items {
        byProduct[item.ProductID] = item
    }
    assert.True(t, byProduct[1].UnitPrice.Equal(decimal.RequireFromString("7.99")))
    assert.Equal(t, "Pelota mordedora", byProduct[1].ProductName)
    assert.True(t, byProduct[2].UnitPrice.Equal(decimal.RequireFromString("4.50")))

    // Inventario descontado y carrito vaciado dentro de la transacción.
    assert.Equal(t, 8, f.store.products[1].Stock)
    assert.Equal(t, 1, f.store.products[2].Stock)
    assert.Equal(t, f.cartID, tx.clearedID)
    assert.Empty(t, f.store.items[f.cartID])

    require.Len(t, f.queue.jobs, 1)
    job := f.queue.jobs[0]
    assert.Equal(t, queue.JobTypeOrderConfirmation, job.jobType)
    assert.Equal(t, "ana@example.com", job.data["email"])
    assert.Equal(t, order.OrderNumber, job.data["numero_pedido"])
    assert.Equal(t, "20.48", job.data["total"])
}

func TestProcessCheckoutInsufficientStock(t *testing.T) {
    f := newCheckoutFixture(t)

    // Pide 5 huesos con stock 2.
    _, err := f.store.SaveCartItem(context.Background(), f.cartID, 2, 5)
    require.NoError(t, err)

    rec := f.doCheckout(`{"direccion_envio": "Calle Luna 8", "telefono": "611222333"}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)

    var resp models.APIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Contains(t, resp.Message, "Stock insuficiente para 'Hueso de goma'")

    // Se rechaza antes de abrir la transacción: nada descontado, nada encolado.
    assert.False(t, f.store.begun)
    assert.Equal(t, 10, f.store.products[1].Stock)
    assert.Equal(t, 2, f.store.products[2].Stock)
    assert.NotEmpty(t, f.store.items[f.cartID])
    assert.Empty(t, f.queue.jobs)
}

func TestProcessCheckoutStockLostInTransaction(t *testing.T) {
    f := newCheckoutFixture(t)

    // La validación previa ve stock 10; otro pedido se lo lleva antes del
    // UPDATE condicional.
    f.store.tx.decrementHook = func() {
        p := f.store.products[1]
        p.Stock = 1
        f.store.products[1] = p
    }

    rec := f.doCheckout(`{"direccion_envio": "Calle Luna 8", "telefono": "611222333"}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)

    var resp models.APIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Contains(t, resp.Message, "Stock insuficiente")

    assert.False(t, f.store.tx.committed)
    assert.True(t, f.store.tx.rolledBack)
    assert.Empty(t, f.queue.jobs)
}

func TestProcessCheckoutEmptyCart(t *testing.T) {
    f := newCheckoutFixture(t)
    f.store.items[f.cartID] = make(map[int64]models.CartItem)

    rec := f.doCheckout(`{"direccion_envio": "Calle Luna 8", "telefono": "611222333"}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)

    var resp models.APIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "El carrito está vacío", resp.Message)
}

func TestProcessCheckoutValidation(t *testing.T) {
    f := newCheckoutFixture(t)

    rec := f.doCheckout(`{"telefono": "611222333"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    var resp models.APIResponse
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "direccion_envio es requerida", resp.Message)

    rec = f.doCheckout(`{"direccion_envio": "Calle Luna 8"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "telefono es requerido", resp.Message)
}

func TestProcessCheckoutRequiresUser(t *testing.T) {
    f := newCheckoutFixture(t)
    f.user = nil

    rec := f.doCheckout(`{"direccion_envio": "Calle Luna 8", "telefono": "611222333"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
