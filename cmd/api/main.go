package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/config"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/mail"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/router"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/store/memory"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task"
	taskrepo "github.com/ovaphlow/pitchfork/service-taskbite/internal/task/repo"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/token"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-taskbite/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/database"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/utilities"
)

type stores struct {
	users user.Store
	notes task.NoteStore
	todos task.TodoStore
	ping  func(ctx context.Context) error
	close func() error
}

func openStores(ctx context.Context, cfg database.Config, sugar *zap.SugaredLogger) (*stores, error) {
	if cfg.Driver == database.DriverMemory {
		sugar.Warn("using in-memory storage; data is lost on exit")
		mem := memory.New()
		return &stores{
			users: mem.Users(),
			notes: mem.Notes(),
			todos: mem.Todos(),
			close: func() error { return nil },
		}, nil
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, cfg.Driver, sugar); err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		users: userrepo.NewUserRepo(db),
		notes: taskrepo.NewNoteRepo(db),
		todos: taskrepo.NewTodoRepo(db),
		ping:  db.PingContext,
		close: db.Close,
	}, nil
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting taskbite api")

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	if cfg.GeneratedSecret {
		sugar.Warn("JWT_SECRET_KEY not set; using a random secret, tokens will not survive a restart")
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init storage
	dbCfg := database.ConfigFromEnv()
	st, err := openStores(ctx, dbCfg, sugar)
	if err != nil {
		sugar.Fatalf("storage: %v", err)
	}
	defer st.close()

	var mailer user.Mailer
	if cfg.SMTP.Server == "" {
		mailer = mail.NewLogMailer(sugar)
	} else {
		mailer = mail.New(mail.Config{
			Server:   cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			Sender:   cfg.SMTP.Sender,
			UseTLS:   cfg.SMTP.UseTLS,
		}, sugar)
	}

	reg := metrics.New()
	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	userSvc := user.NewUserService(st.users, user.BcryptHasher{Cost: cfg.BcryptCost}, tokens, mailer, user.Options{
		BaseURL:              cfg.BaseURL,
		AccessTokenTTL:       cfg.AccessTokenTTL,
		VerificationTokenTTL: cfg.VerificationTokenTTL,
		PasswordResetTTL:     cfg.PasswordResetTTL,
	}, sugar).WithEvents(reg)
	taskSvc := task.NewService(st.notes, st.todos, utilities.NewSnowflakeSource(cfg.SnowflakeNode), sugar)

	var limiter *router.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = router.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
		go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	}

	// mount http server
	handler := router.RegisterRoutes(router.Deps{
		Logger:         sugar,
		Users:          user.NewHandler(userSvc, sugar),
		Tasks:          task.NewHandler(taskSvc, sugar),
		Tokens:         tokens,
		Metrics:        reg,
		Limiter:        limiter,
		TrustedOrigins: cfg.TrustedOrigins,
		Ping:           st.ping,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env, "driver", dbCfg.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
