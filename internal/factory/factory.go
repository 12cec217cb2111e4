package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"markwave-backend/internal/client"
	"markwave-backend/internal/config"
	"markwave-backend/internal/events"
	"markwave-backend/internal/graph"
	"markwave-backend/internal/hashing"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/repository/redis"
	"markwave-backend/internal/service"
	"markwave-backend/internal/util"
)

// Factory manages the lifecycle of all application dependencies.
type Factory struct {
	Config *config.Config

	graphClient graph.Client
	redisClient *client.RedisClient
	publisher   events.Publisher

	UserService     *service.UserService
	ProductService  *service.ProductService
	PurchaseService *service.PurchaseService

	closeOnce sync.Once
}

// NewFactory loads configuration and initializes every dependency, failing
// fast when the graph store or Redis is unreachable.
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{Config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	f.graphClient, err = graph.NewNeo4jClient(ctx, graph.Options{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
		MaxPool:  cfg.Neo4j.MaxPool,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize graph client: %w", err)
	}

	var otpCache service.OTPCache = redis.NoopCache{}
	if cfg.Redis.URL != "" {
		f.redisClient, err = client.NewRedisClient(cfg)
		if err != nil {
			f.graphClient.Close(context.Background())
			return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		otpCache = redis.NewOTPCache(f.redisClient)
	} else {
		util.Warn("No Redis URL configured, OTP issuance cap disabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		f.publisher = events.NewKafkaPublisher(cfg)
	} else {
		util.Warn("No Kafka brokers configured, events disabled")
		f.publisher = events.NoopPublisher{}
	}

	userRepo := graphdb.NewUserRepository(f.graphClient)
	productRepo := graphdb.NewProductRepository(f.graphClient)
	purchaseRepo := graphdb.NewPurchaseRepository(f.graphClient)
	hasher := hashing.NewHasher()

	f.UserService = service.NewUserService(userRepo, otpCache, hasher, f.publisher, cfg.OTP)
	f.ProductService = service.NewProductService(productRepo)
	f.PurchaseService = service.NewPurchaseService(purchaseRepo, f.publisher)

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment))

	return f, nil
}

// GraphClient exposes the shared graph client for health probes.
func (f *Factory) GraphClient() graph.Client {
	return f.graphClient
}

// Close releases every held resource exactly once.
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := f.publisher.Close(); err != nil {
			util.Error("Failed to close event publisher", util.ErrorField(err))
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}
		if err := f.graphClient.Close(ctx); err != nil {
			util.Error("Failed to close graph client", util.ErrorField(err))
		}
		util.Info("Factory closed")
	})
}
