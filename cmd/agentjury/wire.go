package main

import (
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentjury"
	"github.com/hupe1980/agentjury/agent"
	"github.com/hupe1980/agentjury/config"
	"github.com/hupe1980/agentjury/cost"
	"github.com/hupe1980/agentjury/engine"
	"github.com/hupe1980/agentjury/guardrail"
	"github.com/hupe1980/agentjury/logging"
	"github.com/hupe1980/agentjury/model"
	anthropicmodel "github.com/hupe1980/agentjury/model/anthropic"
	openaimodel "github.com/hupe1980/agentjury/model/openai"
)

// app bundles the configuration and the components built from it.
type app struct {
	cfg       *config.Config
	logger    logging.Logger
	jury      *agentjury.Jury
	moderator *guardrail.Moderator
}

// newApp loads the configuration named by the persistent flags and builds
// the jury. jury stays nil when no OpenAI key is configured.
func newApp(cmd *cobra.Command, logOutput io.Writer) (*app, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	envPath, _ := cmd.Root().PersistentFlags().GetString("env-file")

	cfg, err := config.LoadFrom(cfgPath, envPath)
	if err != nil {
		return nil, err
	}

	logOpts := cfg.Logging.LoggerOptions()
	logOpts.Output = logOutput
	a := &app{cfg: cfg, logger: logging.New(logOpts)}

	if !cfg.Configured() {
		a.logger.Warn("config.unconfigured", "missing", "OPENAI_API_KEY")
		return a, nil
	}

	if err := a.buildJury(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) buildJury() error {
	cfg := a.cfg

	oaiOpts := []openaioption.RequestOption{openaioption.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		oaiOpts = append(oaiOpts, openaioption.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	oai := openai.NewClient(oaiOpts...)

	maxTokens := int64(cfg.Models.MaxOutputTokens)

	registry := model.NewRegistry()
	registry.Register("gpt-", openaimodel.Factory(&oai, func(o *openaimodel.Options) {
		if maxTokens > 0 {
			o.MaxCompletionTokens = maxTokens
		}
	}))

	if cfg.Anthropic.APIKey != "" {
		antOpts := []anthropicoption.RequestOption{anthropicoption.WithAPIKey(cfg.Anthropic.APIKey)}
		if cfg.Anthropic.BaseURL != "" {
			antOpts = append(antOpts, anthropicoption.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		ant := anthropic.NewClient(antOpts...)
		registry.Register("claude-", anthropicmodel.Factory(&ant, func(o *anthropicmodel.Options) {
			if maxTokens > 0 {
				o.MaxTokens = maxTokens
			}
		}))
	}

	moderator, err := guardrail.NewModerator(openaimodel.NewModerator(&oai, cfg.Moderation.Model), func(o *guardrail.ModerationOptions) {
		o.MaxChars = cfg.Moderation.MaxChars
		o.CacheTTL = cfg.Moderation.CacheTTL
		o.CacheMaxCost = cfg.Moderation.CacheMaxCost
		o.BreakerMaxFailures = cfg.Moderation.BreakerMaxFailures
		o.BreakerTimeout = cfg.Moderation.BreakerTimeout
		o.Logger = a.logger
	})
	if err != nil {
		return err
	}
	a.moderator = moderator

	guard := guardrail.New(moderator, func(o *guardrail.Options) { o.Logger = a.logger })

	factory := agent.NewFactory(registry, func(o *agent.FactoryOptions) { o.MaxOutputTokens = maxTokens })

	a.jury = agentjury.New(factory, guard, func(o *agentjury.Options) {
		o.EngineConfig = engine.Config{
			MaxConcurrentRuns: cfg.Debate.MaxConcurrentRuns,
			EventBufferSize:   cfg.Debate.EventBuffer,
			DeltaChunkSize:    cfg.Debate.DeltaChunkSize,
			MaxWorkerCalls:    cfg.Debate.MaxWorkerCalls,
		}
		o.ModelOptions = cfg.Models.Options
		o.Alternates = cfg.Models.Alternates
		o.Pricing = cost.NewTable(cfg.Pricing)
		o.Logger = a.logger
	})
	return nil
}

// Close releases the moderation cache.
func (a *app) Close() {
	if a.moderator != nil {
		a.moderator.Close()
	}
}
