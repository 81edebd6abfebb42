package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/classroom-points/internal/config"
	"github.com/nimasrn/classroom-points/internal/handlers"
	"github.com/nimasrn/classroom-points/internal/queue"
	"github.com/nimasrn/classroom-points/internal/repository"
	"github.com/nimasrn/classroom-points/internal/services"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/nimasrn/classroom-points/pkg/pg"
	"github.com/nimasrn/classroom-points/pkg/prom"
	"github.com/nimasrn/classroom-points/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	opt := xhttp.DefaultServerOption
	opt.ReadTimeout = time.Duration(cfg.HttpServerReadTimeout) * time.Second
	opt.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeout) * time.Second
	s := xhttp.NewServer(opt)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.TimeoutMiddleware(time.Duration(cfg.HttpRequestTimeout) * time.Second))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.CORSMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     cfg.PostgresReadUser,
		Host:     cfg.PostgresReadHost,
		Port:     cfg.PostgresReadPort,
		Password: cfg.PostgresReadPassword,
		Database: cfg.PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
	}

	db, err := pg.CreateReadWrite(readConf, writeConf, cfg.AppEnv == "dev" && cfg.AppDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: "default",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	events, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              cfg.QueueName,
		ConsumerGroup:     cfg.QueueConsumerGroup,
		ConsumerName:      cfg.QueueConsumerName,
		MaxRetries:        cfg.QueueMaxRetries,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		PollInterval:      cfg.QueuePollInterval,
		BatchSize:         cfg.QueueBatchSize,
		MaxLen:            cfg.QueueMaxLen,
		EnableDLQ:         cfg.QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
		return
	}

	if cfg.AppDebugMetricsAddr != "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed to create prometheus metrics", "error", err)
			return
		}
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	productRepo := repository.NewProductRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	// services
	admins := cfg.Admins()
	purchaseService := services.NewPurchaseService(studentRepo, studentRepo, productRepo, purchaseRepo, ledgerRepo, db, events)
	balanceService := services.NewBalanceService(studentRepo, studentRepo, ledgerRepo, db)
	rosterService := services.NewRosterService(classRepo, studentRepo, teacherRepo, productRepo, purchaseRepo, ledgerRepo, db, admins)
	catalogService := services.NewCatalogService(productRepo, classRepo)
	authService := services.NewAuthService(admins, teacherRepo, studentRepo, classRepo)
	healthService := services.NewHealthService(2 * time.Second)
	healthService.Register("postgres", db)
	healthService.Register("redis", redisAdap)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := rosterService.EnsureDefaultClass(ctx, cfg.DefaultClassName); err != nil {
		logger.Error("failed to seed default class", "error", err)
	}
	cancel()

	g := s.Router.Group(cfg.HttpBaseRequestUrl)
	handlers.RegisterPurchaseRoutes(g, handlers.NewPurchaseHandler(purchaseService, rosterService))
	handlers.RegisterBalanceRoutes(g, handlers.NewBalanceHandler(balanceService))
	handlers.RegisterRosterRoutes(g, handlers.NewRosterHandler(rosterService))
	handlers.RegisterProductRoutes(g, handlers.NewProductHandler(catalogService))
	handlers.RegisterAuthRoutes(g, handlers.NewAuthHandler(authService))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
	if err := db.Close(); err != nil {
		logger.Warn("failed to close pg", "error", err)
	}
	_ = redisAdap.Close()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
