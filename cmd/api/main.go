package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/config"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	appHTTP "github.com/cmlabs-hris/hris-leave-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/dispatch"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	serviceAccess "github.com/cmlabs-hris/hris-leave-go/internal/service/access"
	serviceApproval "github.com/cmlabs-hris/hris-leave-go/internal/service/approval"
	serviceAuth "github.com/cmlabs-hris/hris-leave-go/internal/service/auth"
	serviceEmployee "github.com/cmlabs-hris/hris-leave-go/internal/service/employee"
	serviceFile "github.com/cmlabs-hris/hris-leave-go/internal/service/file"
	serviceLeave "github.com/cmlabs-hris/hris-leave-go/internal/service/leave"
	serviceProject "github.com/cmlabs-hris/hris-leave-go/internal/service/project"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(cfg.Telemetry.ServiceName, cfg.Telemetry.StdoutTracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, "up"); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	tx := postgresql.NewTransactor(db)
	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	projectRepo := postgresql.NewProjectRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	approvalRepo := postgresql.NewApprovalRequestRepository(db)
	outboxRepo := postgresql.NewOutboxRepository(db)

	policy := serviceAccess.MustNewPolicy()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	directory := serviceEmployee.NewDirectory(employeeRepo, projectRepo)
	employeeService := serviceEmployee.NewEmployeeService(tx, employeeRepo, directory, policy)
	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	photoService := serviceFile.NewPhotoService(tx, employeeRepo, fileStorage, policy)
	projectService := serviceProject.NewProjectService(tx, projectRepo, employeeRepo, policy)
	authService := serviceAuth.NewAuthService(userRepo, employeeRepo, directory, JWTService, policy, cfg.JWT.AccessExpiration)
	decisionApplier := serviceLeave.NewDecisionApplier(tx, leaveRequestRepo, employeeRepo)
	coordinator := serviceApproval.NewCoordinator(tx, approvalRepo, leaveRequestRepo, employeeRepo, projectRepo, outboxRepo, decisionApplier, policy)
	ledger := serviceLeave.NewLedger(tx, leaveRequestRepo, approvalRepo, employeeRepo, outboxRepo, directory, coordinator, policy, clock.New())

	publishers := []outbox.Publisher{dispatch.NewHubPublisher(hub)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := dispatch.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		slog.Info("Kafka publisher enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	dispatcher := dispatch.NewDispatcher(tx, outboxRepo, dispatch.Options{
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		RetryBackoff: cfg.Outbox.RetryBackoff,
	}, publishers...)

	var rdb redis.Cmdable
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, idempotent replay runs fail-open", "addr", cfg.Redis.Addr, "error", err)
		}
		rdb = client
	}

	router := appHTTP.NewRouter(cfg, JWTService, directory, rdb, appHTTP.Handlers{
		Auth:     appHTTP.NewAuthHandler(authService),
		Employee: appHTTP.NewEmployeeHandler(employeeService, photoService),
		Project:  appHTTP.NewProjectHandler(projectService),
		Leave:    appHTTP.NewLeaveHandler(ledger, coordinator),
		Approval: appHTTP.NewApprovalHandler(coordinator),
		Events:   appHTTP.NewEventsHandler(JWTService, directory, hub),
	})

	scheduler := cron.NewScheduler()
	if cfg.Outbox.Enabled {
		scheduler.AddJob("dispatch_outbox", cfg.Outbox.Interval, dispatcher.Run)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start(gctx)
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("Shutting down server...")
		err := server.Shutdown(shutdownCtx)
		scheduler.Stop()
		return err
	})

	return g.Wait()
}
