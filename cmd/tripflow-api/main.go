// README: Entry point; loads config, wires the resolution pipeline, starts HTTP server and background derivation.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tripflow/internal/ai"
	"tripflow/internal/config"
	"tripflow/internal/embedding"
	"tripflow/internal/enrich"
	"tripflow/internal/extract"
	httptransport "tripflow/internal/http"
	"tripflow/internal/infra"
	"tripflow/internal/log"
	"tripflow/internal/modules/aiusage"
	"tripflow/internal/modules/conversation"
	"tripflow/internal/modules/intentcache"
	"tripflow/internal/modules/patterns"
	"tripflow/internal/predict"
	"tripflow/internal/seqcontext"
	"tripflow/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gaz, err := extract.LoadGazetteer(cfg.Gazetteer)
	if err != nil {
		log.Fatalf("gazetteer: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	patternsSvc, err := patterns.NewService(patterns.NewStore(dbPool), cfg.Patterns)
	if err != nil {
		log.Fatalf("patterns: %v", err)
	}
	defer patternsSvc.Close()

	// Model-backed layers are optional; a missing key disables the layer
	// instead of refusing to start.
	var (
		provider ai.CompletionProvider
		summary  ai.SummaryProvider
	)
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiKey == "" {
			log.Warnf("GEMINI_API_KEY not set; model fallback disabled")
			break
		}
		gp, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Warnf("gemini init failed, model fallback disabled: %v", err)
			break
		}
		defer gp.Close()
		provider = gp
		if cfg.AI.EnableSummary {
			summary = gp
		}
	case "openai":
		if cfg.AI.OpenAIKey == "" {
			log.Warnf("OPENAI_API_KEY not set; model fallback disabled")
			break
		}
		provider = ai.NewOpenAIProvider(cfg.AI.OpenAIKey)
	case "off":
	default:
		log.Warnf("unknown LLM provider %q; model fallback disabled", cfg.AI.Provider)
	}

	var similarity *embedding.Resolver
	if cfg.AI.EmbedURL != "" {
		similarity = embedding.NewResolver(
			embedding.NewClient(cfg.AI.EmbedURL, cfg.AI.EmbedModel), gaz.CityNames())
	}

	var sequence *seqcontext.Model
	if summary != nil {
		sequence = seqcontext.NewModel(summary)
	}

	extractor := extract.NewWithClock(gaz, time.Now)
	sessions := conversation.NewStore(redisClient, cfg.Session.TTL)

	resolver, err := service.NewResolver(service.Deps{
		Extractor:  extractor,
		Enricher:   enrich.New(extractor),
		Completer:  predict.New(gaz),
		Cache:      intentcache.NewRedis(redisClient, cfg.Cache.TTL, cfg.Cache.MaxEntries),
		Patterns:   patternsSvc,
		Provider:   provider,
		Similarity: similarity,
		Sequence:   sequence,
		Sessions:   sessions,
		Quota:      aiusage.NewService(aiusage.NewStore(dbPool)),
		AITimeout:  cfg.AI.Timeout,
	})
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Resolver: resolver,
		Sessions: sessions,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go patternsSvc.RunDerivation(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("tripflow-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
