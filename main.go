package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	classifierx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/classifier"
	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
	dataagentx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/dataagent"
	gatewayx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/gateway"
	routerx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/router"
	supportx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/support"
	a2ax "github.com/tanpawarit/Chative-Customer-Service-Coordination/pkg/a2a"
	configx "github.com/tanpawarit/Chative-Customer-Service-Coordination/pkg/config"
	_ "github.com/tanpawarit/Chative-Customer-Service-Coordination/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Chative-Customer-Service-Coordination/pkg/openrouter"
)

type AppConfig struct {
	ClassifyThreshold float64       `envconfig:"CLASSIFY_THRESHOLD" default:"0.5"`
	DispatchTimeout   time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"10s"`
	PostgresDSN       string        `envconfig:"POSTGRES_DSN"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	gateway := buildGateway(appCfg)
	classifier := buildClassifier()

	dataAgent, err := dataagentx.New(gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("build data agent")
	}
	support, err := supportx.New(dataAgent)
	if err != nil {
		log.Fatal().Err(err).Msg("build support agent")
	}
	router, err := routerx.New(classifier, dataAgent, support, routerx.Config{
		ClassifyThreshold: appCfg.ClassifyThreshold,
		DispatchTimeout:   appCfg.DispatchTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	serverCfg := configx.MustNew[a2ax.ServerConfig]("SERVER")
	server, err := a2ax.NewServer(*serverCfg, router, dataAgent, support)
	if err != nil {
		log.Fatal().Err(err).Msg("build a2a server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("a2a server stopped")
	}
}

func buildGateway(cfg *AppConfig) contractx.Gateway {
	if cfg.PostgresDSN != "" {
		pg, err := gatewayx.NewPostgresGateway(gatewayx.PostgresConfig{DSN: cfg.PostgresDSN})
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres gateway")
		}
		log.Info().Msg("using postgres gateway")
		return pg
	}

	mem := gatewayx.NewMemoryGateway()
	mem.Seed()
	log.Info().Msg("using in-memory gateway with demo seed data")
	return mem
}

func buildClassifier() contractx.Classifier {
	rules := classifierx.NewRuleClassifier()

	openRouterCfg, err := configx.New[openrouterx.Config]("OPENROUTER")
	if err != nil {
		log.Warn().Err(err).Msg("openrouter not configured, rule classifier only")
		return classifierx.NewChain(rules)
	}
	client := openrouterx.NewClient(*openRouterCfg)
	if client == nil {
		return classifierx.NewChain(rules)
	}

	llm, err := classifierx.NewLLMClassifier(client, openRouterCfg.Model)
	if err != nil {
		log.Warn().Err(err).Msg("llm classifier unavailable, rule classifier only")
		return classifierx.NewChain(rules)
	}
	log.Info().Str("model", openRouterCfg.Model).Msg("llm fallback classifier enabled")
	return classifierx.NewChain(rules, llm)
}
