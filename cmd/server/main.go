package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"markwave-backend/internal/factory"
	"markwave-backend/internal/handler"
	"markwave-backend/internal/util"
)

func main() {
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config

	router := handler.NewRouter(
		handler.NewUserHandler(f.UserService),
		handler.NewProductHandler(f.ProductService),
		handler.NewPurchaseHandler(f.PurchaseService),
		f.GraphClient(),
		cfg.Server.AllowedOrigins,
		util.Get(),
	)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Fatal("Server failed to start", util.ErrorField(err))
		}
	}()

	util.Info("Server started",
		util.String("environment", cfg.Environment),
		util.String("address", server.Addr),
	)

	waitForShutdown(f, server)
}

func waitForShutdown(f *factory.Factory, server *http.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signalChan
	util.Info("Received shutdown signal", util.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), f.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		util.Error("Graceful shutdown failed", util.ErrorField(err))
	}

	f.Close()
	util.Sync()
}
