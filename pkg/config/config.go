package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	Port       string
	DBPath     string
	RMQURL     string
	ForceQueue string
}

type SchedulerConfig struct {
	DBPath         string
	RMQURL         string
	ForceQueue     string
	UpdateQueue    string
	BridgeURL      string
	TickInterval   time.Duration
	ThrottleWindow time.Duration
	BridgeTimeout  time.Duration
}

var (
	API       APIConfig
	Scheduler SchedulerConfig
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("required env %s is not set", k)
	}
	return v
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("env %s: bad duration %q: %v", k, v, err)
	}
	return d
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}
}

func MustLoadAPI() {
	loadDotenv()
	API = APIConfig{
		Port:       getenv("PORT", "8080"),
		DBPath:     getenv("DB_PATH", "data/spimforce.db"),
		RMQURL:     mustEnv("RMQ_URL"),
		ForceQueue: getenv("FORCE_QUEUE", "force_send"),
	}
}

func MustLoadScheduler() {
	loadDotenv()
	Scheduler = SchedulerConfig{
		DBPath:         getenv("DB_PATH", "data/spimforce.db"),
		RMQURL:         mustEnv("RMQ_URL"),
		ForceQueue:     getenv("FORCE_QUEUE", "force_send"),
		UpdateQueue:    getenv("UPDATE_QUEUE", "campaign_updates"),
		BridgeURL:      mustEnv("BRIDGE_URL"),
		TickInterval:   getDuration("TICK_INTERVAL", 10*time.Minute),
		ThrottleWindow: getDuration("THROTTLE_WINDOW", time.Hour),
		BridgeTimeout:  getDuration("BRIDGE_TIMEOUT", 30*time.Second),
	}
}
