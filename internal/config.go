package internal

import (
	"fmt"
	"time"
)

// Config carries every tunable of the client binaries.
// Values come from the environment (see Netflix/go-env tags); the binaries
// load a .env file first when one is present.
type Config struct {
	BackendURL       string        `env:"BACKEND_URL,required=true"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT,default=30s"`
	SinkTimeout      time.Duration `env:"SINK_TIMEOUT,default=2s"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath    string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
	LimitMessages    *int          `env:"LIMIT_MESSAGES"`
	SearchPageSize   int           `env:"SEARCH_PAGE_SIZE,default=10"`
	EnableModeration bool          `env:"ENABLE_MODERATION,default=true"`
	CensorChar       string        `env:"CENSOR_CHARACTER,default=*"`
	DebugPort        int           `env:"DEBUG_PORT,default=8081"`
}

// CharacterRune validates that the configured mask is a single character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSOR_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
