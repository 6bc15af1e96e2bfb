package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creditdesk/config"
	"creditdesk/database"
	"creditdesk/routes"
	"creditdesk/services"
	"creditdesk/utils"
)

const shutdownTimeout = 15 * time.Second

// newServices создает сервисы приложения поверх одного подключения к базе
func newServices(cfg *config.Config, db *database.Database) routes.Services {
	notifier := services.NewNotifier(cfg)
	keyRates := services.NewKeyRateClient(cfg.CBR.URL, cfg.CBR.Timeout)

	return routes.Services{
		Users:         services.NewUserService(db.DB),
		Access:        services.NewAccessService(db.DB),
		Clients:       services.NewClientService(db.DB),
		Catalog:       services.NewCatalogService(db.DB),
		InterestRates: services.NewInterestRateService(db.DB, keyRates),
		Credits:       services.NewCreditService(db.DB, notifier),
		Payments:      services.NewPaymentService(db.DB, notifier),
	}
}

// ensureAdmin создает первого суперпользователя, если он задан в конфигурации
func ensureAdmin(ctx context.Context, cfg *config.Config, users *services.UserService) error {
	if !cfg.HasAdmin() {
		return nil
	}
	if err := users.EnsureSuperuser(ctx, cfg.Admin.ID, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("ошибка создания суперпользователя: %w", err)
	}
	return nil
}

func serve(name string, srv *http.Server, errCh chan<- error) {
	utils.LogInfo("%s запущен на %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("%s: %w", name, err)
	}
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if err := utils.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Ошибка настройки логгера: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		utils.Logger().Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	svc := newServices(cfg, db)
	if err := ensureAdmin(context.Background(), cfg, svc.Users); err != nil {
		utils.Logger().Fatal(err)
	}

	metrics := utils.GetMetrics()
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           routes.NewRouter(cfg, svc, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	opsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Ops.Port),
		Handler:           routes.NewOpsRouter(db, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go serve("API сервер", apiServer, errCh)
	go serve("служебный сервер", opsServer, errCh)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		utils.LogInfo("получен сигнал %s, останавливаем серверы", sig)
	case err := <-errCh:
		utils.LogError("ошибка сервера: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, opsServer} {
		if err := srv.Shutdown(ctx); err != nil {
			utils.LogError("ошибка остановки сервера %s: %v", srv.Addr, err)
		}
	}
	utils.LogInfo("серверы остановлены")
}
