package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	MongoURI           string
	MongoDatabase      string
	ProductsCollection string
	CatalogCollection  string

	LoginURL    string
	ProductsURL string
	TargetHost  string
	Username    string
	Password    string

	MaxPages      int
	PageDelayMs   int
	SettleMs      int
	LoginTimeoutS int
	ProgressEvery int

	// Catalog suppliers whose products keep their stock status when the
	// scrape has no matching code (see services.StockSyncer).
	SkipSuppliers []string

	APIPort       string
	CronSpec      string
	CSVOutputPath string
	LogFile       string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "autopartes"),
		ProductsCollection: getEnv("PRODUCTS_COLLECTION", "products_corven"),
		CatalogCollection:  getEnv("CATALOG_COLLECTION", "productos"),

		LoginURL: getEnv("CORVEN_LOGIN_URL",
			"https://auth.bnssafe.com/realms/autogestion/protocol/openid-connect/auth"+
				"?client_id=ecommerce_corven_autopartes_backend&response_type=code"+
				"&redirect_uri=https://e-commerce.corven.com.ar/keycloak_login"),
		ProductsURL: getEnv("CORVEN_PRODUCTS_URL", "https://e-commerce.corven.com.ar/products"),
		TargetHost:  getEnv("CORVEN_TARGET_HOST", "e-commerce.corven.com.ar"),
		Username:    getEnv("CORVEN_USERNAME", ""),
		Password:    getEnv("CORVEN_PASSWORD", ""),

		MaxPages:      getEnvInt("MAX_PAGES", 175),
		PageDelayMs:   getEnvInt("PAGE_DELAY_MS", 1000),
		SettleMs:      getEnvInt("SETTLE_MS", 2000),
		LoginTimeoutS: getEnvInt("LOGIN_TIMEOUT_S", 30),
		ProgressEvery: getEnvInt("PROGRESS_EVERY", 10),

		SkipSuppliers: getEnvList("SKIP_SUPPLIERS", "marrose,yokomitsu"),

		APIPort:       getEnv("API_PORT", "5000"),
		CronSpec:      getEnv("CRON_SPEC", "0 6 * * *"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/products_snapshot.csv"),
		LogFile:       getEnv("LOG_FILE", ""),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// PageDelay returns the pacing delay between consecutive page fetches.
func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMs) * time.Millisecond
}

// SettleTime returns the wait applied after navigation so dynamic content renders.
func (c *Config) SettleTime() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}

// LoginTimeout bounds the whole interactive login flow.
func (c *Config) LoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeoutS) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
