package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	HistoryLimit         int           `env:"HISTORY_LIMIT,default=100"`
	RateInterval         time.Duration `env:"RATE_INTERVAL,default=1s"`
	ProbeInterval        time.Duration `env:"PROBE_INTERVAL,default=30s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	MaxFrameBytes        int64         `env:"MAX_FRAME_BYTES,default=4096"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`

	LoginRatePerSecond float64 `env:"LOGIN_RATE_PER_SECOND,default=0.2"`
	LoginBurst         int     `env:"LOGIN_BURST,default=5"`

	// DedupMessages silently drops a message identical to one already in
	// history. Kept for compatibility with the historical behavior, off
	// by default.
	DedupMessages bool `env:"DEDUP_MESSAGES,default=false"`

	// CensoredWords is a comma separated word list; empty disables the
	// censor pass entirely.
	CensoredWords     string `env:"CENSORED_WORDS"`
	CensorReplacement string `env:"CENSOR_REPLACEMENT,default=*"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSOR_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
