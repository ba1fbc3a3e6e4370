package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string

	// Knowledge-base API
	KBBaseURL       string
	FeedbackBaseURL string
	PublicMediaURL  string
	QueryMaxResults int

	// Speech provider
	SpeechProvider     string
	ElevenLabsBaseURL  string
	ElevenLabsAPIKey   string
	ElevenLabsVoiceID  string
	ElevenLabsSTTModel string
	ElevenLabsTTSModel string
	OpenAIBaseURL      string
	OpenAIAPIKey       string

	// Redis (knowledge-base cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KBCacheTTL    time.Duration

	// Exchange archive
	DBDSN       string
	RabbitURL   string
	RabbitQueue string
}

func Load() Config {
	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	kbBaseURL := os.Getenv("KB_API_BASE_URL")
	if kbBaseURL == "" {
		kbBaseURL = "http://localhost:8000"
	}

	feedbackBaseURL := os.Getenv("FEEDBACK_API_BASE_URL")
	if feedbackBaseURL == "" {
		feedbackBaseURL = "https://api.videoindex.app"
	}

	publicMediaURL := os.Getenv("PUBLIC_MEDIA_BASE_URL")
	if publicMediaURL == "" {
		publicMediaURL = "https://videoindex.app"
	}

	maxResults := 5
	if v := os.Getenv("QUERY_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxResults = n
		}
	}

	speechProvider := os.Getenv("SPEECH_PROVIDER")
	if speechProvider == "" {
		speechProvider = "elevenlabs"
	}

	elevenBaseURL := os.Getenv("ELEVENLABS_BASE_URL")
	if elevenBaseURL == "" {
		elevenBaseURL = "https://api.elevenlabs.io"
	}
	elevenVoice := os.Getenv("ELEVENLABS_VOICE_ID")
	if elevenVoice == "" {
		elevenVoice = "21m00Tcm4TlvDq8ikWAM"
	}
	elevenSTT := os.Getenv("ELEVENLABS_STT_MODEL")
	if elevenSTT == "" {
		elevenSTT = "scribe_v1"
	}
	elevenTTS := os.Getenv("ELEVENLABS_TTS_MODEL")
	if elevenTTS == "" {
		elevenTTS = "eleven_multilingual_v2"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	cacheTTL := 5 * time.Minute
	if v := os.Getenv("KB_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cacheTTL = d
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "chat_exchanges"
	}

	return Config{
		ListenAddr: listenAddr,

		KBBaseURL:       kbBaseURL,
		FeedbackBaseURL: feedbackBaseURL,
		PublicMediaURL:  publicMediaURL,
		QueryMaxResults: maxResults,

		SpeechProvider:     speechProvider,
		ElevenLabsBaseURL:  elevenBaseURL,
		ElevenLabsAPIKey:   os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID:  elevenVoice,
		ElevenLabsSTTModel: elevenSTT,
		ElevenLabsTTSModel: elevenTTS,
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		KBCacheTTL:    cacheTTL,

		DBDSN:       os.Getenv("DB_DSN"),
		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,
	}
}
