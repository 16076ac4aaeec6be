package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

const (
	// Version is the current version of Pagepilot
	Version = "1"
	// AppName is the application name
	AppName = "Pagepilot Server"
)

// Config holds all configuration options for the Pagepilot server
type Config struct {
	// Server
	Host    string
	Port    int
	BaseURL string // Full base URL for API responses (e.g., http://localhost:8000)

	// Browser (Chromium over CDP)
	ChromeBin      string
	ChromeRevision int
	ChromeDownload bool
	Headless       bool
	Proxy          string

	// Interaction tuning
	AttachTimeoutMs int  // hard wait for the element to appear
	SoftWaitMs      int  // budget for scroll and visibility waits
	KeyboardFill    bool // simulated keystrokes instead of direct value fill
	TypeDelayMs     int  // delay between simulated keystrokes
	SettleMs        int  // pause after text entry before reporting
	TrailingNudge   bool // trailing space press to wake change listeners
	SnapshotDir     string

	// Queue (NATS JetStream)
	WithNats   bool
	NatsURL    string
	NatsStore  string
	NatsAutoDL bool
	NatsBin    string

	// Security
	RateLimitRequests int           // requests per window
	RateLimitWindow   time.Duration // time window for rate limiting
	IdempotencyTTL    time.Duration // TTL for idempotency keys
	ResultTTL         time.Duration // TTL for job results
	MaxJobTimeout     time.Duration // Maximum allowed job timeout
	MaxRetries        int           // Maximum retries per job

	// Flags
	ShowVersion bool
	ShowHelp    bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:              "0.0.0.0",
		Port:              8000,
		BaseURL:           "", // Will be auto-generated if empty
		ChromeBin:         "",
		ChromeRevision:    0,
		ChromeDownload:    false,
		Headless:          true,
		Proxy:             "",
		AttachTimeoutMs:   2000,
		SoftWaitMs:        200,
		KeyboardFill:      false,
		TypeDelayMs:       2,
		SettleMs:          1000,
		TrailingNudge:     true,
		SnapshotDir:       "",
		WithNats:          true,
		NatsURL:           "nats://127.0.0.1:4222",
		NatsStore:         "./data/nats",
		NatsAutoDL:        true,
		NatsBin:           "./bin/nats-server",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		IdempotencyTTL:    24 * time.Hour,
		ResultTTL:         7 * 24 * time.Hour, // 7 days
		MaxJobTimeout:     5 * time.Minute,
		MaxRetries:        5,
		ShowVersion:       false,
		ShowHelp:          false,
	}
}

// ParseFlags parses command line flags and returns the config
func ParseFlags() *Config {
	cfg := DefaultConfig()

	// Server flags
	flag.StringVar(&cfg.Host, "host", cfg.Host, "Host address to bind the server")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "Port number for the server")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Base URL for API responses (e.g., http://localhost:8000)")

	// Browser flags
	flag.StringVar(&cfg.ChromeBin, "chrome-bin", cfg.ChromeBin, "Path to Chromium binary (empty locates or downloads one)")
	flag.IntVar(&cfg.ChromeRevision, "chrome-revision", cfg.ChromeRevision, "Chromium revision to download (0 uses default)")
	flag.BoolVar(&cfg.ChromeDownload, "chrome-download", cfg.ChromeDownload, "Download Chromium before starting")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run Chromium headless")
	flag.StringVar(&cfg.Proxy, "proxy", cfg.Proxy, "Proxy server for browser traffic")

	// Interaction flags
	flag.IntVar(&cfg.AttachTimeoutMs, "attach-timeout-ms", cfg.AttachTimeoutMs, "Wait for the target element to appear, in milliseconds")
	flag.IntVar(&cfg.SoftWaitMs, "soft-wait-ms", cfg.SoftWaitMs, "Budget for scroll and visibility waits, in milliseconds")
	flag.BoolVar(&cfg.KeyboardFill, "keyboard-fill", cfg.KeyboardFill, "Enter text with simulated keystrokes instead of direct value fill")
	flag.IntVar(&cfg.TypeDelayMs, "type-delay-ms", cfg.TypeDelayMs, "Delay between simulated keystrokes, in milliseconds")
	flag.IntVar(&cfg.SettleMs, "settle-ms", cfg.SettleMs, "Pause after text entry before reporting, in milliseconds")
	flag.BoolVar(&cfg.TrailingNudge, "trailing-nudge", cfg.TrailingNudge, "Press a trailing space after text entry to wake change listeners")
	flag.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "Directory for text DOM snapshots (empty disables)")

	// NATS flags
	flag.BoolVar(&cfg.WithNats, "with-nats", cfg.WithNats, "Enable NATS JetStream for job queue")
	flag.StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "NATS server URL")
	flag.StringVar(&cfg.NatsStore, "nats-store", cfg.NatsStore, "NATS JetStream storage directory")
	flag.BoolVar(&cfg.NatsAutoDL, "nats-autodl", cfg.NatsAutoDL, "Auto-download NATS server binary")
	flag.StringVar(&cfg.NatsBin, "nats-bin", cfg.NatsBin, "Path to NATS server binary")

	// Security flags
	flag.IntVar(&cfg.RateLimitRequests, "rate-limit", cfg.RateLimitRequests, "Rate limit requests per minute")
	flag.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "Maximum retries per job (1-10)")

	// Other flags
	flag.BoolVar(&cfg.ShowVersion, "version", cfg.ShowVersion, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", cfg.ShowHelp, "Show help message")

	// Custom usage function
	flag.Usage = func() {
		PrintHelp()
	}

	flag.Parse()

	// Auto-generate BaseURL if not provided
	if cfg.BaseURL == "" {
		host := cfg.Host
		if host == "0.0.0.0" {
			host = "localhost"
		}
		cfg.BaseURL = fmt.Sprintf("http://%s:%d", host, cfg.Port)
	}

	// Validate
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.MaxRetries > 10 {
		cfg.MaxRetries = 10
	}
	if cfg.RateLimitRequests < 1 {
		cfg.RateLimitRequests = 100
	}
	if cfg.AttachTimeoutMs < 1 {
		cfg.AttachTimeoutMs = 2000
	}
	if cfg.SoftWaitMs < 1 {
		cfg.SoftWaitMs = 200
	}

	return cfg
}

// AttachTimeout returns the attach wait as a duration.
func (c *Config) AttachTimeout() time.Duration {
	return time.Duration(c.AttachTimeoutMs) * time.Millisecond
}

// SoftWait returns the soft wait budget as a duration.
func (c *Config) SoftWait() time.Duration {
	return time.Duration(c.SoftWaitMs) * time.Millisecond
}

// TypeDelay returns the keystroke delay as a duration.
func (c *Config) TypeDelay() time.Duration {
	return time.Duration(c.TypeDelayMs) * time.Millisecond
}

// SettleDelay returns the post-entry pause as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}

// PrintVersion prints version information
func PrintVersion() {
	fmt.Printf("%s v%s\n", AppName, Version)
}

// PrintHelp prints help information
func PrintHelp() {
	fmt.Printf(`%s v%s (Interact + Queue)

Usage:
  ./server [flags]

Server:
  --host               %s
  --port               %d
  --base-url           %s (auto-generated if empty)

Browser (Chromium CDP):
  --chrome-bin         path to Chromium binary (empty locates or downloads)
  --chrome-revision    %d
  --chrome-download    %v
  --headless           %v
  --proxy              proxy server for browser traffic

Interaction:
  --attach-timeout-ms  %d
  --soft-wait-ms       %d
  --keyboard-fill      %v
  --type-delay-ms      %d
  --settle-ms          %d
  --trailing-nudge     %v
  --snapshot-dir       directory for text DOM snapshots

Queue (NATS JetStream):
  --with-nats          %v
  --nats-url           %s
  --nats-store         %s
  --nats-autodl        %v
  --nats-bin           %s

Security:
  --rate-limit         %d (requests per minute)
  --max-retries        %d (max retries per job)

Other:
  --version            show version
  --help               show this help

`, AppName, Version,
		"0.0.0.0", 8000, "http://localhost:8000",
		0, false, true,
		2000, 200, false, 2, 1000, true,
		true, "nats://127.0.0.1:4222", "./data/nats", true, "./bin/nats-server",
		100, 5)
}

// HandleFlags handles version and help flags, exits if needed
func HandleFlags(cfg *Config) {
	if cfg.ShowVersion {
		PrintVersion()
		os.Exit(0)
	}

	if cfg.ShowHelp {
		PrintHelp()
		os.Exit(0)
	}
}
