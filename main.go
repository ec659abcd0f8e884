package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civic-complaint-service/config"
	"civic-complaint-service/database"
	"civic-complaint-service/handlers"
	"civic-complaint-service/metrics"
	"civic-complaint-service/rabbitmq"
	"civic-complaint-service/service"
)

func main() {
	cfg := config.Load()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	metrics.Register()

	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	svc := service.NewService(cfg, db)
	h := handlers.NewHandlers(svc, db)

	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.POST("/reports", h.SubmitReport)
		api.POST("/locations", h.SubmitLocation)
		api.POST("/complaints/:id/cancel", h.CancelComplaint)
		api.GET("/complaints/:id", h.GetComplaint)
		api.GET("/tickets/:id", h.GetTicket)
	}
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	svc.Start()

	var subscriber *rabbitmq.Subscriber
	if cfg.AMQPEnabled {
		subscriber = rabbitmq.NewSubscriber(cfg.AMQPURL, cfg.AMQPQueue, svc.HandleQueuedReport)
		subscriber.Start()
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	if subscriber != nil {
		subscriber.Stop()
	}
	svc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
