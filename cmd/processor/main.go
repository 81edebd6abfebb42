package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/classroom-points/internal/config"
	gateway "github.com/nimasrn/classroom-points/internal/gateways"
	"github.com/nimasrn/classroom-points/internal/processor"
	"github.com/nimasrn/classroom-points/internal/queue"
	"github.com/nimasrn/classroom-points/internal/repository"
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
	logger.Info("starting processor", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

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
		ClientName: "processor",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	gwConf := gateway.DefaultConfig(cfg.NotifierPrimaryUrl, cfg.NotifierSecondaryUrl)
	gwConf.Timeout = time.Duration(cfg.NotifierTimeout) * time.Second
	client, err := gateway.NewClient(gwConf)
	if err != nil {
		logger.Error("failed to create webhook gateway", "error", err)
		return
	}

	reportRepo := repository.NewNotificationReportRepository(db)

	idemConf := processor.DefaultIdempotencyConfig()
	idemConf.MaxRetries = cfg.QueueMaxRetries
	idempotencyService := processor.NewIdempotencyService(redisAdap, idemConf)

	service := processor.NewProcessorService(redisAdap, processor.Config{
		Queue: queue.QueueConfig{
			Name:              cfg.QueueName,
			ConsumerGroup:     cfg.QueueConsumerGroup,
			ConsumerName:      cfg.QueueConsumerName,
			MaxRetries:        cfg.QueueMaxRetries,
			VisibilityTimeout: cfg.QueueVisibilityTimeout,
			PollInterval:      cfg.QueuePollInterval,
			BatchSize:         cfg.QueueBatchSize,
			MaxLen:            cfg.QueueMaxLen,
			EnableDLQ:         cfg.QueueEnableDLQ,
		},
		Consumers: cfg.ProcessorConsumers,
		Workers:   cfg.ProcessorWorkers,
	})
	service.RegisterProcessor(processor.NewPurchaseEventProcessor(client, reportRepo, idempotencyService))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	metricsAddr := cfg.AppDebugMetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9100"
	}
	go prom.ListenAndServer(metricsAddr, cfg.AppDebugMetricsURI)

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	service.Stop()
	for _, st := range client.Stats() {
		logger.Info("webhook endpoint stats", "name", st.Name, "state", st.State, "requests", st.TotalRequests, "failed", st.FailedReqs, "success_rate", st.SuccessRate)
	}
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
