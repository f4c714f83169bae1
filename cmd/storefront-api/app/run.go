package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/ddebuut/storefront-api/configs"
	"github.com/ddebuut/storefront-api/internal/adapter/cache"
	httpadapter "github.com/ddebuut/storefront-api/internal/adapter/http"
	"github.com/ddebuut/storefront-api/internal/adapter/kafka"
	"github.com/ddebuut/storefront-api/internal/adapter/queue"
	"github.com/ddebuut/storefront-api/internal/adapter/repo"
	"github.com/ddebuut/storefront-api/internal/adapter/stripe"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)
	logger.Info("storefront-api: starting up")

	// database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	err = db.PingContext(ctx)
	cancel()
	if err != nil {
		return nil, nil, err
	}

	// redis (order-creation idempotency only, never payment state)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// rabbitmq: advisory events. The service runs without a broker; events
	// are best-effort by contract.
	var (
		amqpConn  *amqp.Connection
		publisher usecase.EventPublisher
	)
	if cfg.Rabbit.URL != "" {
		amqpConn, err = amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return nil, nil, err
		}
		ch, err := amqpConn.Channel()
		if err != nil {
			return nil, nil, err
		}
		p, err := queue.NewRabbitProducer(ch)
		if err != nil {
			return nil, nil, err
		}
		publisher = p
		setupNotifyConsumer(ch)
	} else {
		logger.Warn("rabbitmq.url not set, domain events disabled")
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	paymentRepo := repo.NewMySQLPaymentRepo(db)
	reviewRepo := repo.NewMySQLReviewRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	provider := stripe.NewClient(cfg.Stripe.APIBase, cfg.Stripe.SecretKey, cfg.Stripe.Timeout)
	verifier := stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret, stripe.DefaultTolerance)

	// usecases
	createUC := usecase.NewCreateOrder(orderRepo, idem, publisher)
	openUC := usecase.NewOpenCheckout(orderRepo, paymentRepo, provider)
	applyUC := usecase.NewApplyStatus(orderRepo, paymentRepo, publisher)
	pollUC := usecase.NewPollStatus(provider, applyUC)
	reviewsUC := usecase.NewReviews(orderRepo, reviewRepo, productRepo)

	// background reconciliation repair
	sweepCtx := logging.WithCtx(context.Background(), logging.New("sweeper"))
	go usecase.NewSweeper(orderRepo, paymentRepo, cfg.Sweep.Interval, cfg.Sweep.Batch).Run(sweepCtx)

	// fulfillment status feed
	if len(cfg.Kafka.Brokers) > 0 {
		if err := setupFulfillmentListener(cfg, orderRepo); err != nil {
			return nil, nil, err
		}
	} else {
		logger.Warn("kafka.brokers not set, fulfillment feed disabled")
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Handlers{
		Orders:   httpadapter.NewOrderHandler(createUC, orderRepo),
		Checkout: httpadapter.NewCheckoutHandler(openUC, pollUC),
		Webhook:  httpadapter.NewWebhookHandler(verifier, applyUC),
		Reviews:  httpadapter.NewReviewHandler(reviewsUC),
		Admin:    httpadapter.NewAdminHandler(orderRepo),
	})

	cleanup := func() {
		_ = db.Close()
		_ = rdb.Close()
		if amqpConn != nil {
			_ = amqpConn.Close()
		}
	}

	return &App{Router: router}, cleanup, nil
}

func setupNotifyConsumer(ch *amqp.Channel) {
	h := queue.NewPaymentConfirmedHandler(nil) // mailer plugs in here

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queue.NotifyQueue, queue.JSONHandler[usecase.PaymentConfirmedEvent]{HandleFunc: h.HandleConfirmed})

	if err := router.Start(); err != nil {
		panic(err)
	}
}

func setupFulfillmentListener(cfg configs.Config, orders usecase.OrderStore) error {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return err
	}

	h := kafka.NewFulfillmentHandler(orders)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.FulfillmentTopic}, h.Handle)
	consumer.Logger = logging.New("kafka-fulfillment")

	// Start retries failed Consume calls internally; it only returns once
	// the context is cancelled.
	go func() {
		ctx := logging.WithCtx(context.Background(), consumer.Logger)
		_ = consumer.Start(ctx)
	}()
	return nil
}
