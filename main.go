package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animal-chat/backend/cache"
	"animal-chat/backend/config"
	"animal-chat/backend/database"
	"animal-chat/backend/handlers"
	"animal-chat/backend/live"
	"animal-chat/backend/logging"
	"animal-chat/backend/metrics"
	"animal-chat/backend/middleware"
	"animal-chat/backend/sweeper"
	"animal-chat/backend/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadConfig()
	logging.Init(cfg.Env)

	database.ConnectMongoDB(cfg.MongoDBURI, cfg.DBName)
	defer database.DisconnectMongoDB()

	// Redis carries the cross-instance event relay and the recent-rooms
	// cache. Both degrade gracefully when it is unreachable.
	var rdb *redis.Client
	if client, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running single-instance without room history cache")
	} else {
		rdb = client
		defer rdb.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := live.NewBroker(rdb)
	go broker.Run(ctx)

	trigger := live.NewActivityTrigger(broker, database.TouchActivity)
	go trigger.Run(ctx)

	hub := websocket.NewHub(broker)
	go hub.Run(ctx)

	sw := sweeper.New(database.RoomStore{}, cfg.InactiveThreshold, cfg.SweepTimeout)
	go sw.Run(ctx, cfg.SweepInterval)

	var recent *cache.RecentRooms
	if rdb != nil {
		recent = cache.NewRecentRooms(rdb)
	}

	authHandler := &handlers.AuthHandler{JWTSecret: cfg.JWTSecret}
	roomHandler := &handlers.RoomHandler{Broker: broker, Recent: recent}

	limiter := middleware.NewRateLimiter(middleware.PerSecond(cfg.RateLimitPerSecond), cfg.RateLimitBurst, 10*time.Minute)
	defer limiter.Stop()

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Backend is running!")
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// The websocket route does its own auth and must not be wrapped by
	// middleware that hides http.Hijacker.
	router.HandleFunc("/ws", websocket.ServeWS(hub, cfg.JWTSecret)).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(metrics.Middleware)

	api.Handle("/register", limiter.Limit(http.HandlerFunc(authHandler.RegisterUser))).Methods("POST")
	api.Handle("/login", limiter.Limit(http.HandlerFunc(authHandler.LoginUser))).Methods("POST")

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.JWTMiddleware(cfg.JWTSecret))

	authed.HandleFunc("/me", authHandler.Me).Methods("GET")
	authed.HandleFunc("/me/verify-email", authHandler.VerifyEmail).Methods("POST")
	authed.HandleFunc("/me/recent-rooms", roomHandler.RecentRooms).Methods("GET")
	authed.HandleFunc("/users", authHandler.GetAllUsers).Methods("GET")

	authed.HandleFunc("/rooms", roomHandler.CreateRoom).Methods("POST")
	authed.HandleFunc("/rooms/{id}", roomHandler.GetRoom).Methods("GET")
	authed.HandleFunc("/rooms/{id}/join", roomHandler.JoinRoom).Methods("POST")
	authed.HandleFunc("/rooms/{id}/leave", roomHandler.LeaveRoom).Methods("POST")
	authed.HandleFunc("/rooms/{id}/mass-exit", roomHandler.MassExit).Methods("POST")
	authed.HandleFunc("/rooms/{id}/participants", roomHandler.GetParticipants).Methods("GET")
	authed.HandleFunc("/rooms/{id}/messages", roomHandler.GetMessages).Methods("GET")
	authed.Handle("/rooms/{id}/messages", limiter.Limit(http.HandlerFunc(roomHandler.SendMessage))).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", serverAddr).Msg("Could not start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
