package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/booklend/go-booklend-backend/internal/awsx"
	"github.com/booklend/go-booklend-backend/internal/config"
	"github.com/booklend/go-booklend-backend/internal/handlers"
	"github.com/booklend/go-booklend-backend/internal/logger"
)

func main() {
	bootLog, err := logger.New("booklend-api", false)
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New("booklend-api", cfg.Development)
	if err != nil {
		bootLog.Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	clients, err := awsx.NewClients(ctx)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Cache is an optimization; run without it rather than refuse to start.
			log.Warn("redis unreachable, catalog cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	r := handlers.NewRouter(handlers.Deps{
		Clients: clients,
		Redis:   rdb,
		Cfg:     cfg,
		Log:     log,
	})

	if cfg.RunLocal {
		addr := ":" + cfg.Port
		log.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			log.Fatal("server exited", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
