package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/keyline-labs/auth-service/internal/auth"
	"github.com/keyline-labs/auth-service/internal/config"
	"github.com/keyline-labs/auth-service/internal/storage"
	"github.com/keyline-labs/auth-service/internal/user"
	"github.com/keyline-labs/auth-service/internal/utils"
	"github.com/keyline-labs/auth-service/internal/utils/db"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatal("invalid JWT_SECRET: ", err)
	}
	hasher := utils.NewBcryptHasher()

	var users auth.UserStore
	var ledger auth.Ledger
	if db.Configured() {
		gdb, err := db.GetDB()
		if err != nil {
			log.Fatal("database connection failed: ", err)
		}
		if err := gdb.AutoMigrate(&user.User{}, &auth.RefreshToken{}); err != nil {
			log.Fatal("migration failed: ", err)
		}
		users = user.NewStore(gdb)
		ledger = auth.NewGormLedger(gdb)
	} else {
		log.Println("DB_HOST not set, using in-memory storage (development only)")
		mem := storage.NewMemory()
		users, ledger = mem, mem
	}

	manager := auth.NewManager(users, ledger, hasher, signer)
	handler := auth.NewHandler(manager)

	reaper := auth.NewReaper(ledger, cfg.ReaperInterval, cfg.RefreshTokenTTL)
	reaper.Start()

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1/auth").Subrouter()
	api.HandleFunc("/credentials", handler.SaveCredentials).Methods("POST")
	api.HandleFunc("/login", handler.Login).Methods("POST")
	api.HandleFunc("/refresh", handler.Refresh).Methods("POST")
	api.HandleFunc("/validate", handler.Validate).Methods("POST")
	api.HandleFunc("/logout", handler.Logout).Methods("POST")

	// administrative surface, bearer token required
	requireToken := auth.RequireAccessToken(manager)
	api.Handle("/users/{id}", requireToken(http.HandlerFunc(handler.DeleteUser))).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: c.Handler(r)}
	go func() {
		log.Printf("auth service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	reaper.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
