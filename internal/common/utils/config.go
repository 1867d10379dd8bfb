package utils

import (
	"log"
	"os"

	qconfig "github.com/qiniu/x/config"
)

var (
	DefaultConf Config
)

func InitConf(configFilePath string) {
	err := qconfig.LoadFile(&DefaultConf, configFilePath)
	if err != nil {
		log.Fatalf("failed to load config file, error %v", err)
	}
}

// MongoConfig mongo database settings.
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// QiniuKeyPair qiniu API access key/secret key pair.
type QiniuKeyPair struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// QiniuStorageConfig object storage gateway settings.
// Bucket is the kodo bucket uploads go to, URLPrefix the public download
// host bound to that bucket.
type QiniuStorageConfig struct {
	Bucket    string `json:"bucket"`
	URLPrefix string `json:"url_prefix"`
}

// MailConfig transactional email settings. Provider "test" logs instead of
// sending; "smtp" delivers through the configured relay.
type MailConfig struct {
	Provider  string   `json:"provider"`
	SMTPHost  string   `json:"smtp_host"`
	SMTPPort  int      `json:"smtp_port"`
	From      string   `json:"from"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	TeamInbox []string `json:"team_inbox"`
}

// MeetConfig video meeting provider settings. Provider "test" returns
// deterministic fake meetings; "zoom" talks to the Zoom server-to-server
// OAuth API.
type MeetConfig struct {
	Provider     string `json:"provider"`
	AccountID    string `json:"account_id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	BaseURL      string `json:"base_url"`
	AuthURL      string `json:"auth_url"`
}

// RateLimitConfig fixed-window limiter settings for one action.
type RateLimitConfig struct {
	MaxRequests int   `json:"max_requests"`
	WindowMs    int64 `json:"window_ms"`
}

// Config server configuration. debug_level 0 also emits debug logs, 1 emits
// info and above.
type Config struct {
	DebugLevel int    `json:"debug_level"`
	ListenAddr string `json:"listen_addr"`
	// FrontendUrlHost public site host, used when building links in emails.
	FrontendUrlHost string `json:"frontend_url_host"`
	// SiteName appears in email subjects and meeting topics.
	SiteName string `json:"site_name"`
	// Timezone slots are generated in, e.g. "Europe/Warsaw". Empty means UTC.
	Timezone string `json:"timezone"`
	JwtKey   string `json:"jwt_key"`
	// BootstrapAdmins are auto-approved at sign-up so the first admin can get in.
	BootstrapAdmins  []string            `json:"bootstrap_admins"`
	Mongo            *MongoConfig        `json:"mongo"`
	QiniuKeyPair     QiniuKeyPair        `json:"qiniu_key_pair"`
	Storage          *QiniuStorageConfig `json:"storage"`
	Mail             *MailConfig         `json:"mail"`
	Meet             *MeetConfig         `json:"meet"`
	BookingRateLimit *RateLimitConfig    `json:"booking_rate_limit"`
	PublicRateLimit  *RateLimitConfig    `json:"public_rate_limit"`
}

// NewSample returns a config usable for local development and tests.
func NewSample() *Config {
	return &Config{
		DebugLevel:      0,
		ListenAddr:      ":8080",
		FrontendUrlHost: "http://localhost:3000",
		SiteName:        "Polaris Rocketry",
		JwtKey:          "polaris-dev",
		Mongo: &MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "polaris_test",
		},
		Mail: &MailConfig{
			Provider:  "test",
			From:      "no-reply@polaris.example.org",
			TeamInbox: []string{"team@polaris.example.org"},
		},
		Meet: &MeetConfig{
			Provider:  "test",
			AccountID: os.Getenv("MEET_ACCOUNT_ID"),
			ClientID:  os.Getenv("MEET_CLIENT_ID"),
		},
		BookingRateLimit: &RateLimitConfig{MaxRequests: 5, WindowMs: 60000},
		PublicRateLimit:  &RateLimitConfig{MaxRequests: 10, WindowMs: 60000},
	}
}
