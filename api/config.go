package api

import "time"

type ServerConfig struct {
	S3      S3Config
	DB      DBConfig
	Redis   RedisConfig
	Session SessionConfig
	Uploads UploadConfig
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Bucket          string
	PublicBaseURL   string
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	Bids string
}

type SessionConfig struct {
	KeyForCookie string
	CookieMaxAge time.Duration
	// TTL expires sessions server-side; the storefront sees the expiry on
	// its next session poll.
	TTL time.Duration
}

type UploadConfig struct {
	// RateLimitPerHour caps document and image uploads per user. Zero
	// disables the limit.
	RateLimitPerHour int64
}
