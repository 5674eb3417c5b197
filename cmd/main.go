package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	grpchealth "google.golang.org/grpc/health"

	"github.com/dtroode/blogauth-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/blogauth-server/internal/api/grpc/server"
	"github.com/dtroode/blogauth-server/internal/api/http/clientip"
	httpctx "github.com/dtroode/blogauth-server/internal/api/http/context"
	"github.com/dtroode/blogauth-server/internal/api/http/cookie"
	httpRouter "github.com/dtroode/blogauth-server/internal/api/http/router"
	httpServer "github.com/dtroode/blogauth-server/internal/api/http/server"
	"github.com/dtroode/blogauth-server/internal/codes"
	"github.com/dtroode/blogauth-server/internal/config"
	"github.com/dtroode/blogauth-server/internal/events"
	"github.com/dtroode/blogauth-server/internal/health"
	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/mail"
	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/dtroode/blogauth-server/internal/password"
	"github.com/dtroode/blogauth-server/internal/ratelimit"
	"github.com/dtroode/blogauth-server/internal/repository/memory"
	"github.com/dtroode/blogauth-server/internal/repository/postgres"
	"github.com/dtroode/blogauth-server/internal/server"
	"github.com/dtroode/blogauth-server/internal/service"
	storage "github.com/dtroode/blogauth-server/internal/storage/minio"
	"github.com/dtroode/blogauth-server/internal/token"
	"github.com/dtroode/blogauth-server/internal/validation"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type stores struct {
	users         model.UserStore
	confirmations model.ConfirmationStore
	recoveries    model.RecoveryStore
	sessions      model.SessionStore
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	healthServer := grpchealth.NewServer()
	monitor := health.NewMonitor(healthServer, cfg.GRPC.HealthCheckInterval, 3*time.Second, logger)

	var st stores
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewConection(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		defer db.Close()

		st = stores{
			users:         postgres.NewUserRepository(db),
			confirmations: postgres.NewConfirmationRepository(db),
			recoveries:    postgres.NewRecoveryRepository(db),
			sessions:      postgres.NewSessionRepository(db),
		}
		monitor.Add("database", db)
	default:
		mem := memory.NewStore()
		st = stores{
			users:         mem.Users(),
			confirmations: mem.Confirmations(),
			recoveries:    mem.Recoveries(),
			sessions:      mem.Sessions(),
		}
		logger.Warn("using in-memory storage, data is lost on restart")
	}

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		limiter = ratelimit.NewRedisLimiter(rdb, "ratelimit")
		monitor.Add("redis", health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}

	var mailer model.Mailer
	switch cfg.Mail.Driver {
	case "minio":
		objects, err := storage.NewClient(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		mailer = mail.NewDropMailer(objects, cfg.Mail.From)
		monitor.Add("storage", objects)
	default:
		mailer = mail.NewLogMailer(cfg.Mail.From, logger)
	}

	var publisher model.EventPublisher = events.Noop{}
	if len(cfg.Events.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	hasher, err := password.NewArgon2id(password.KDFParams{Time: cfg.KDF.Time, MemKiB: cfg.KDF.MemKiB, Par: cfg.KDF.Par})
	if err != nil {
		logger.Fatal("invalid kdf parameters", "error", err)
	}
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	credentials := service.NewCredentials(st.users, st.confirmations, st.recoveries, hasher, codes.NewRandom(),
		service.CodeTTL{Confirmation: cfg.Codes.ConfirmationTTL, Recovery: cfg.Codes.RecoveryTTL})
	sessions := service.NewSessions(st.sessions, tokenManager, tokenManager.RefreshTTL())
	authService := service.NewAuth(credentials, sessions, st.users, tokenManager, mailer, publisher, logger)

	ipExtractor, err := clientip.New(cfg.TrustedProxyHeaders, cfg.TrustedProxies)
	if err != nil {
		logger.Fatal("invalid trusted proxies", "error", err)
	}

	handler := httpRouter.New(httpRouter.Options{
		Service:        authService,
		Limiter:        limiter,
		Policy:         ratelimit.Policy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window},
		FailOpen:       cfg.RateLimit.FailOpen,
		Validator:      validation.New(),
		Cookies:        cookie.NewManager(cfg.Cookie.Domain, cfg.Cookie.Secure, cfg.Cookie.SameSite),
		ClientIP:       ipExtractor,
		ContextManager: httpctx.NewManager(),
		Logger:         logger,
	}).Register()

	servers := []model.Server{
		httpServer.NewHTTPServer(handler, fmt.Sprintf(":%s", cfg.HTTP.Port)),
		grpcServer.NewGRPCServer(router.New(healthServer, logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
