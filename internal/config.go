package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host           string        `env:"HOST,default=0.0.0.0"`
	Port           int           `env:"PORT,default=8743"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT,default=30s"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE,default=5s"`
	StatsInterval  time.Duration `env:"STATS_INTERVAL,default=30s"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`

	// SelfNotify controls whether users receive nickname/picture change
	// events about themselves.
	SelfNotify bool `env:"SELF_NOTIFY,default=true"`

	CensorEnabled bool   `env:"CENSOR_ENABLED,default=true"`
	CensorChar    string `env:"CENSOR_CHARACTER,default=*"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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
