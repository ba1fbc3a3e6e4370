package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/recallhq/videoindex/internal/chat"
	"github.com/recallhq/videoindex/internal/config"
	"github.com/recallhq/videoindex/internal/db"
	"github.com/recallhq/videoindex/internal/events"
	"github.com/recallhq/videoindex/internal/httpapi"
	"github.com/recallhq/videoindex/internal/httpapi/handlers"
	"github.com/recallhq/videoindex/internal/kb"
	"github.com/recallhq/videoindex/internal/speech"
)

func main() {
	cfg := config.Load()

	client := kb.NewClient(cfg.KBBaseURL, cfg.FeedbackBaseURL)

	// Listing and detail reads go through Redis when it is configured.
	var catalog handlers.Catalog = client
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		catalog = kb.NewCache(client, rdb, cfg.KBCacheTTL, nil)
	}

	// Speech provider registry (route by SPEECH_PROVIDER)
	reg := speech.NewRegistry()
	reg.Register("elevenlabs", func(ctx context.Context) (speech.Provider, error) {
		e := speech.NewElevenLabs(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID)
		if cfg.ElevenLabsSTTModel != "" {
			e.STTModel = cfg.ElevenLabsSTTModel
		}
		if cfg.ElevenLabsTTSModel != "" {
			e.TTSModel = cfg.ElevenLabsTTSModel
		}
		return e, nil
	})
	reg.Register("openai", func(ctx context.Context) (speech.Provider, error) {
		return speech.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	})

	provider, err := reg.Get(context.Background(), cfg.SpeechProvider)
	if err != nil {
		log.Fatalf("speech provider: %v", err)
	}

	var pub *events.Publisher
	if cfg.RabbitURL != "" {
		pub, err = events.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatalf("rabbit publisher: %v", err)
		}
		defer pub.Close()
	}

	var archive *chat.ArchiveRepo
	if cfg.DBDSN != "" {
		archive = chat.NewArchiveRepo(db.Connect(cfg.DBDSN))
	}

	sessions := chat.NewManager(client, client, cfg.QueryMaxResults)

	h := handlers.NewHandler(cfg, catalog, client, sessions, provider, pub, archive)
	r := httpapi.NewRouter(h)

	log.Printf("server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
