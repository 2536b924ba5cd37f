package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/cache"
	httpserver "pipetrak/infrastructure/http"
	"pipetrak/infrastructure/rbac"
	"pipetrak/infrastructure/sqlite"
)

func main() {
	// Optional; env vars win over the file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", slog.Any("err", err))
	}

	addr := getenv("APP_ADDR", ":8080")
	dbPath := getenv("SQLITE_PATH", "pipetrak.db")

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		slog.Error("open db failed", slog.String("path", dbPath), slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, "infrastructure/sqlite/migrations"); err != nil {
		slog.Error("apply migrations failed", slog.Any("err", err))
		os.Exit(1)
	}

	sessionCache := cache.NewUserSessionCache()
	userCache := cache.NewUserCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)
	auditSvc := audit.NewService()

	server := httpserver.NewServer(addr, db, sessionCache, userCache, rbacSvc, rbacCache, auditSvc)
	if err := server.Start(); err != nil {
		slog.Error("start server failed", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("pipetrak listening", slog.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown error", slog.Any("err", err))
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
