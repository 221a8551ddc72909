// handlers/catalog.go
package handlers

import (
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/gorilla/mux"

    "pem-store-api/database"
    "pem-store-api/models"
    "pem-store-api/utils"
)

type CatalogHandler struct {
    db *database.Connection
}

func NewCatalogHandler(db *database.Connection) *CatalogHandler {
    return &CatalogHandler{db: db}
}

// GetProducts maneja GET /api/productos/ con filtros por query, marca,
// categoría y género.
func (h *CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()

    filter := models.ProductFilter{
        Query:  q.Get("q"),
        Gender: q.Get("genero"),
    }
    if v := q.Get("marca"); v != "" {
        id, err := strconv.ParseInt(v, 10, 64)
        if err != nil {
            utils.SendErrorResponse(w, http.StatusBadRequest, "marca debe ser un ID numérico")
            return
        }
        filter.BrandID = id
    }
    if v := q.Get("categoria"); v != "" {
        id, err := strconv.ParseInt(v, 10, 64)
        if err != nil {
            utils.SendErrorResponse(w, http.StatusBadRequest, "categoria debe ser un ID numérico")
            return
        }
        filter.CategoryID = id
    }

    products, err := h.db.GetProducts(r.Context(), filter)
    if err != nil {
        log.Printf("Error listing products: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    utils.SendJSON(w, http.StatusOK, models.ProductListResponse{
        Count:   len(products),
        Results: products,
    })
}

// GetProduct maneja GET /api/productos/{id}/.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    id, err := strconv.ParseInt(vars["id"], 10, 64)
    if err != nil || id <= 0 {
        utils.SendErrorResponse(w, http.StatusBadRequest, "ID de producto inválido")
        return
    }

    product, err := h.db.GetProductByID(r.Context(), id)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            utils.SendErrorResponse(w, http.StatusNotFound,
                "Producto con ID "+strconv.FormatInt(id, 10)+" no encontrado")
            return
        }
        log.Printf("Error fetching product %d: %v", id, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    utils.SendJSON(w, http.StatusOK, product)
}

// GetFeaturedProducts maneja GET /api/productos/destacados/. Products on
// offer come first, then best sellers.
func (h *CatalogHandler) GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
    limit := 4
    if v := r.URL.Query().Get("limite"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 24 {
            limit = n
        }
    }

    products, err := h.db.GetFeaturedProducts(r.Context(), limit)
    if err != nil {
        log.Printf("Error fetching featured products: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    utils.SendJSON(w, http.StatusOK, models.ProductListResponse{
        Count:   len(products),
        Results: products,
    })
}

// GetBrands maneja GET /api/marcas/.
func (h *CatalogHandler) GetBrands(w http.ResponseWriter, r *http.Request) {
    brands, err := h.db.GetBrands(r.Context())
    if err != nil {
        log.Printf("Error fetching brands: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }
    utils.SendJSON(w, http.StatusOK, brands)
}

// GetCategories maneja GET /api/categorias/.
func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
    categories, err := h.db.GetCategories(r.Context())
    if err != nil {
        log.Printf("Error fetching categories: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }
    utils.SendJSON(w, http.StatusOK, categories)
}
