package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"swap_gateway/internal/app/service"
	"swap_gateway/internal/client"
	"swap_gateway/internal/config"
	evmclient "swap_gateway/internal/infrastructure/network/client"
	"swap_gateway/internal/infrastructure/notify"
	"swap_gateway/internal/infrastructure/registry"
	"swap_gateway/internal/infrastructure/restapi"
	"swap_gateway/internal/infrastructure/wallet"
	"swap_gateway/internal/pkg/logger"
	"swap_gateway/internal/pkg/metrics"
	"swap_gateway/internal/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core())
	stdLogger := slog.New(slogHandler)
	slog.SetDefault(stdLogger)

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	logger.InitSlog(cfg.Logging.Level)
	appLogger := logger.NewSlogAdapter()

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	chainRegistry, err := registry.NewChainRegistryProvider(appLogger, cfg.DefaultChainID)
	if err != nil {
		zapLogger.Fatal("Failed to initialize chain registry", zap.Error(err))
	}

	clientProvider := evmclient.NewEVMClientProvider(cfg, appLogger)

	coinGeckoTimeout := time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond
	coinGeckoClient := client.NewCoinGeckoClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.ApiKey, coinGeckoTimeout, zapLogger)
	zapLogger.Info("CoinGecko client initialized")

	priceService := service.NewPriceService(
		coinGeckoClient,
		appLogger,
		time.Duration(cfg.Prices.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.Prices.CleanupIntervalMinutes)*time.Minute,
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	go priceService.Run(rootCtx, time.Duration(cfg.Prices.RefreshIntervalSeconds)*time.Second)
	zapLogger.Info("Price refresh loop started",
		zap.Int("intervalSeconds", cfg.Prices.RefreshIntervalSeconds))

	notifyCenter := notify.NewCenter(chainRegistry, appLogger)

	quoteService := service.NewQuoteService(
		chainRegistry, priceService, clientProvider, notifyCenter, appLogger, cfg.Executor)
	swapService := service.NewSwapService(
		chainRegistry, clientProvider, notifyCenter, appLogger, cfg.Executor)

	defaultDef, _ := chainRegistry.ByChainID(cfg.DefaultChainID)
	localWallet, err := wallet.NewLocalWallet(defaultDef, os.Getenv(cfg.Wallet.PrivateKeyEnv), appLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize signing wallet", zap.Error(err))
	}
	defer localWallet.Close()

	sessionService := service.NewSessionService(
		localWallet, clientProvider, chainRegistry, swapService, appLogger)
	go sessionService.Run(rootCtx)
	localWallet.Start()

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(utils.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	swapHandler := restapi.NewSwapHandler(
		chainRegistry, quoteService, swapService, sessionService,
		priceService, notifyCenter, localWallet,
		cfg.Executor.DefaultSlippagePercent, appLogger)
	restapi.RegisterRoutes(router, swapHandler)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/block", gin.WrapH(pprof.Handler("block")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofRouter.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
		pprofRouter.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	rootCancel()
	swapService.CancelWatchers()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
