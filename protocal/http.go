package protocal

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"virtual-patient/configs"
	httpAdapter "virtual-patient/internal/adapters/input/http"
	"virtual-patient/internal/adapters/output/casefile"
	"virtual-patient/internal/adapters/output/elevenlabs"
	"virtual-patient/internal/adapters/output/memory"
	"virtual-patient/internal/adapters/output/openai"
	redisStore "virtual-patient/internal/adapters/output/redis"
	"virtual-patient/internal/application"
	"virtual-patient/internal/ports/output"
	redisdriver "virtual-patient/pkg/database_driver/redis"
	"virtual-patient/pkg/metrics"

	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	configs.InitViper("./configs", cfg.ENV)
	conf := configs.GetViper()
	setupLogger(conf)
	logrus.Info(conf.Env)

	app := fiber.New(fiber.Config{
		AppName:      "virtual-patient",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))

	caseDoc, err := casefile.NewFileCaseLoader(conf.Case.Path).Load()
	if err != nil {
		return err
	}

	// Output adapter (session store)
	var (
		store   output.SessionStore
		health  httpAdapter.HealthChecker
		redisDB *redisdriver.DB
	)
	idleTimeout := time.Duration(conf.Session.IdleTimeout) * time.Minute
	switch conf.Session.Backend {
	case "redis":
		redisDB, err = redisdriver.ConnectToRedis(context.Background(), conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return err
		}
		store = redisStore.NewRedisSessionStore(redisDB, idleTimeout)
		health = redisDB.Ping
	default:
		store = memory.NewMemorySessionStore(idleTimeout)
	}
	logrus.Infof("Session backend: %s, idle timeout: %v", conf.Session.Backend, idleTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range c {
			log.Println("Gracefull shut down ...")
			redisdriver.DisconnectRedis(redisDB)
			err := app.Shutdown()
			if err != nil {
				log.Println("Error when shutdown server: ", err)
			}
		}
	}()

	// Wire up the hexagonal architecture layers
	// Output adapters (upstream providers)
	completionClient := openai.NewOpenAIClientAdapter(conf.OpenAI)
	speechClient := elevenlabs.NewElevenLabsClientAdapter(conf.ElevenLabs)
	// Application services (use cases)
	completionSrv := application.NewCompletionService(completionClient, application.CompletionOptions{
		Temperature: conf.OpenAI.Temperature,
		MaxTokens:   conf.OpenAI.MaxTokens,
	})
	sessions := application.NewSessionManager(store, completionSrv, conf.Session.MaxInteractions)
	srv := application.NewPatientChatService(
		sessions,
		completionSrv,
		speechClient,
		caseDoc,
		application.ParsePersonaStyle(conf.Persona.Style),
		conf.HasProviderCredentials(),
	)
	if !conf.HasProviderCredentials() {
		logrus.Warn("OpenAI or ElevenLabs API key is missing, /chat and /palpation will reject requests")
	}
	logrus.Info(srv)
	// Input adapter (HTTP handler)
	hdl := httpAdapter.New(srv, health)

	metrics.MustRegister()
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault) // default
	hdl.RegisterRoutes(app)

	logrus.Println("Listerning on port: ", conf.App.Port)
	err = app.Listen(":" + conf.App.Port)
	if err != nil {
		return err
	}

	return nil
}

func setupLogger(conf *configs.Config) {
	if conf.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	if conf.App.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
