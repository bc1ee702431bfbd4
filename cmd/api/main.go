package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/handler"
	"shopcart/internal/infra/cache"
	"shopcart/internal/infra/db"
	infraRepo "shopcart/internal/infra/repository"
	"shopcart/internal/logger"
	"shopcart/internal/metrics"
	"shopcart/internal/pricing"
	"shopcart/internal/server"
	"shopcart/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	//.env は無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続とマイグレーション
	gormDB, err := db.Connect(cfg.DSN(), !cfg.IsProd())
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	ruleRepo := infraRepo.NewDiscountRuleGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//ルールのキャッシュ（REDIS_ADDR が空なら使わない）
	var ruleCache pricing.RuleCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, rule cache disabled", zap.Error(err))
		} else {
			ruleCache = cache.NewRuleCache(rdb, cfg.RuleCacheTTL)
		}
	}
	catalog := pricing.NewCatalog(ruleRepo, ruleCache, log)

	//usecaseに渡す部品
	now := time.Now
	pricer := pricing.NewPricer(now, log, m)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(txm, productRepo, catalog, pricer, now, log)
	checkoutUC := usecase.NewCheckoutUsecase(txm, pricer, catalog, m, uuid.NewString, now, log)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	ruleUC := usecase.NewDiscountRuleUsecase(txm, ruleRepo, productRepo, categoryRepo, auditRepo, catalog, catalog, pricer, now, log)

	//Handler生成
	e := server.New(cfg, log, m, server.Handlers{
		Health:        handler.NewHealthHandler(sqlDB, log),
		Cart:          handler.NewCartHandler(cartUC, log),
		Checkout:      handler.NewCheckoutHandler(checkoutUC, log),
		Orders:        handler.NewOrderHandler(orderUC, log),
		DiscountRules: handler.NewDiscountRuleHandler(ruleUC, log),
		Metrics:       m.Handler(),
	})

	//Server起動
	return server.Start(ctx, e, cfg.Addr(), log)
}
