package main

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "path/filepath"
    "runtime"
    "syscall"
    "time"

    _ "github.com/go-sql-driver/mysql"
    "github.com/gorilla/mux"

    "pem-store-api/config"
    "pem-store-api/database"
    "pem-store-api/handlers"
    "pem-store-api/middleware"
    "pem-store-api/queue"
    "pem-store-api/services/auth"
    "pem-store-api/services/cart"
    "pem-store-api/services/email"
    "pem-store-api/worker"
)

func corsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
        w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

        // Responder inmediatamente para OPTIONS
        if r.Method == "OPTIONS" {
            w.WriteHeader(http.StatusOK)
            return
        }
        next.ServeHTTP(w, r)
    })
}

type responseWriter struct {
    http.ResponseWriter
    status int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.status = code
    rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()

        wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(wrapper, r)

        // Registrar solo peticiones lentas o con error
        elapsed := time.Since(start)
        if elapsed > 500*time.Millisecond || wrapper.status >= 400 {
            log.Printf(
                "%s %s %s %d %v",
                r.Method,
                r.RequestURI,
                r.RemoteAddr,
                wrapper.status,
                elapsed,
            )
        }
    })
}

func main() {
    log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

    numCPU := runtime.NumCPU()
    runtime.GOMAXPROCS(numCPU)
    log.Printf("Server starting with %d CPUs available", numCPU)

    cfg := config.Load()
    log.Printf("Configuration loaded successfully")

    // Conectar a la base de datos con reintentos
    var db *database.Connection
    var err error
    for retries := 0; retries < 5; retries++ {
        db, err = database.NewConnection(cfg.Database)
        if err == nil {
            break
        }
        retryDelay := time.Duration(retries+1) * time.Second
        log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying in %v...",
            retries+1, err, retryDelay)
        time.Sleep(retryDelay)
    }
    if err != nil {
        log.Fatalf("Failed to connect to database after retries: %v", err)
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    if err := db.GetDB().PingContext(ctx); err != nil {
        log.Fatalf("Failed to ping database: %v", err)
    }
    log.Println("Successfully connected to database")

    jobQueue, err := queue.NewQueue(cfg.Redis.URL, "store_jobs")
    if err != nil {
        log.Fatalf("Failed to connect to Redis: %v", err)
    }
    defer jobQueue.Close()
    log.Println("Successfully connected to Redis")

    rateLimiter, err := middleware.NewRateLimiter(cfg.Redis.URL)
    if err != nil {
        log.Fatalf("Failed to initialize rate limiter: %v", err)
    }
    defer rateLimiter.Close()

    // Servicios
    emailService := email.NewSMTPService(cfg.SMTP)
    jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, db)
    cartService := cart.NewService(db)

    // Worker de emails con concurrencia acotada
    workerConcurrency := cfg.Redis.WorkerConcurrency
    if workerConcurrency < 2 {
        workerConcurrency = 2
    } else if workerConcurrency > 8 {
        workerConcurrency = 8
    }
    orderWorker := worker.NewWorker(jobQueue, emailService)
    orderWorker.Start(workerConcurrency)
    defer orderWorker.Stop()
    log.Printf("Started order worker with %d threads", workerConcurrency)

    // Handlers
    cartHandler := handlers.NewCartHandler(cartService, cfg)
    catalogHandler := handlers.NewCatalogHandler(db)
    authHandler := handlers.NewAuthHandler(jwtService, cartService, cartHandler)
    checkoutHandler := handlers.NewCheckoutHandler(db, cartService, jobQueue)
    adminOrderHandler := handlers.NewAdminOrderHandler(db, jobQueue)
    orderLookupHandler := handlers.NewOrderLookupHandler(db)

    router := mux.NewRouter()
    router.Use(corsMiddleware)
    router.Use(loggingMiddleware)
    router.Use(middleware.SecurityHeadersMiddleware)
    router.Use(rateLimiter.RateLimitMiddleware())

    api := router.PathPrefix("/api").Subrouter()

    // Carrito: funciona con sesión anónima o con token
    cartRoutes := api.PathPrefix("/carrito").Subrouter()
    cartRoutes.Use(middleware.OptionalAuth(jwtService))
    cartRoutes.HandleFunc("/", cartHandler.GetCart).Methods("GET", "OPTIONS")
    cartRoutes.HandleFunc("/agregar/", cartHandler.AddToCart).Methods("POST", "OPTIONS")
    cartRoutes.HandleFunc("/modificar/", cartHandler.UpdateQuantity).Methods("PUT", "OPTIONS")
    cartRoutes.HandleFunc("/eliminar/{id}/", cartHandler.RemoveFromCart).Methods("DELETE", "OPTIONS")
    cartRoutes.HandleFunc("/vaciar/", cartHandler.ClearCart).Methods("DELETE", "OPTIONS")

    // Checkout: requiere cliente autenticado
    checkoutRoute := api.PathPrefix("/carrito/procesar-pago").Subrouter()
    checkoutRoute.Use(middleware.AuthMiddleware(jwtService))
    checkoutRoute.HandleFunc("/", checkoutHandler.ProcessCheckout).Methods("POST", "OPTIONS")

    // Catálogo público
    api.HandleFunc("/productos/", catalogHandler.GetProducts).Methods("GET", "OPTIONS")
    api.HandleFunc("/productos/destacados/", catalogHandler.GetFeaturedProducts).Methods("GET", "OPTIONS")
    api.HandleFunc("/productos/{id:[0-9]+}/", catalogHandler.GetProduct).Methods("GET", "OPTIONS")
    api.HandleFunc("/categorias/", catalogHandler.GetCategories).Methods("GET", "OPTIONS")
    api.HandleFunc("/marcas/", catalogHandler.GetBrands).Methods("GET", "OPTIONS")

    // Autenticación
    api.HandleFunc("/auth/registro/", authHandler.Register).Methods("POST", "OPTIONS")
    api.HandleFunc("/auth/login/", authHandler.Login).Methods("POST", "OPTIONS")
    api.HandleFunc("/auth/refresh/", authHandler.RefreshToken).Methods("POST", "OPTIONS")

    // Consulta pública de pedidos
    api.HandleFunc("/pedidos/consulta/", orderLookupHandler.LookupOrder).Methods("GET", "OPTIONS")

    // Administración de pedidos
    adminRoutes := api.PathPrefix("/admin/pedidos").Subrouter()
    adminRoutes.Use(middleware.AuthMiddleware(jwtService))
    adminRoutes.Use(middleware.RequireAdmin())
    adminRoutes.Use(middleware.AuthLoggingMiddleware)
    adminRoutes.HandleFunc("/", adminOrderHandler.ListOrders).Methods("GET", "OPTIONS")
    adminRoutes.HandleFunc("/estadisticas/", adminOrderHandler.GetStats).Methods("GET", "OPTIONS")
    adminRoutes.HandleFunc("/{id:[0-9]+}/", adminOrderHandler.GetOrder).Methods("GET", "OPTIONS")
    adminRoutes.HandleFunc("/{id:[0-9]+}/cambiar-estado/", adminOrderHandler.ChangeStatus).Methods("POST", "OPTIONS")
    adminRoutes.HandleFunc("/{id:[0-9]+}/cancelar/", adminOrderHandler.CancelOrder).Methods("POST", "OPTIONS")

    startTime := time.Now()

    api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
        ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
        defer cancel()

        health := struct {
            Status    string `json:"status"`
            Time      string `json:"time"`
            Database  string `json:"database"`
            Redis     string `json:"redis"`
            Uptime    string `json:"uptime"`
            GoVersion string `json:"go_version"`
        }{
            Status:    "ok",
            Time:      time.Now().Format(time.RFC3339),
            Database:  "connected",
            Redis:     "connected",
            Uptime:    fmt.Sprintf("%v", time.Since(startTime)),
            GoVersion: runtime.Version(),
        }

        dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
        defer dbCancel()
        if err := db.GetDB().PingContext(dbCtx); err != nil {
            health.Status = "degraded"
            health.Database = "error"
        }

        redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
        defer redisCancel()
        if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
            health.Status = "degraded"
            health.Redis = "error"
        }

        w.Header().Set("Content-Type", "application/json")
        json.NewEncoder(w).Encode(health)
    }).Methods("GET")

    // Archivos estáticos del front-end (index + js del carrito)
    staticDir := cfg.Server.StaticDir
    router.PathPrefix("/static/").Handler(
        http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
    router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
        http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
    }).Methods("GET")

    srv := &http.Server{
        Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
        Handler:        router,
        ReadTimeout:    15 * time.Second,
        WriteTimeout:   30 * time.Second,
        IdleTimeout:    120 * time.Second,
        MaxHeaderBytes: 1 << 20,
    }

    go func() {
        log.Printf("Server starting on port %s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("Server error: %v", err)
        }
    }()

    stop := make(chan os.Signal, 1)
    signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

    <-stop
    log.Println("Shutdown signal received, gracefully shutting down...")

    shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
    defer shutdownCancel()

    log.Println("Shutting down HTTP server...")
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Printf("Server forced to shutdown: %v", err)
    }

    log.Println("Stopping order worker...")
    orderWorker.Stop()

    time.Sleep(2 * time.Second)

    log.Println("Closing database connections...")
    db.Close()

    log.Println("Closing Redis connections...")
    jobQueue.Close()

    log.Println("Server exited properly")
}
