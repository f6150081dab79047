package goUserbot

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is the flat environment schema mapped onto [Config]. Only the
// knobs that make sense to set per deployment are exposed; everything else
// keeps its default.
type envConfig struct {
	APIID   int32  `env:"USERBOT_API_ID,required"`
	APIHash string `env:"USERBOT_API_HASH,required"`

	DeviceModel   string `env:"USERBOT_DEVICE_MODEL" envDefault:"goUserbot"`
	SystemVersion string `env:"USERBOT_SYSTEM_VERSION" envDefault:"1.0"`
	AppVersion    string `env:"USERBOT_APP_VERSION" envDefault:"1.0"`
	LangCode      string `env:"USERBOT_LANG_CODE" envDefault:"en"`

	TwoFactorMaxAttempts int           `env:"USERBOT_2FA_MAX_ATTEMPTS" envDefault:"3"`
	CallTimeout          time.Duration `env:"USERBOT_CALL_TIMEOUT" envDefault:"30s"`
	NonBlocking          bool          `env:"USERBOT_RATE_NONBLOCKING" envDefault:"false"`
	MaxFloodWait         time.Duration `env:"USERBOT_MAX_FLOOD_WAIT" envDefault:"0"`
	JoinsPerMinute       float64       `env:"USERBOT_JOINS_PER_MINUTE" envDefault:"20"`
	PageSize             int           `env:"USERBOT_DIALOG_PAGE_SIZE" envDefault:"100"`
}

// ConfigFromEnv builds a [Config] from environment variables, starting from
// the package defaults. USERBOT_API_ID and USERBOT_API_HASH are required.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("config from env: %w", err)
	}

	cfg := defaultConfig()
	cfg.API.ID = ec.APIID
	cfg.API.Hash = ec.APIHash
	cfg.Device.Model = ec.DeviceModel
	cfg.Device.SystemVersion = ec.SystemVersion
	cfg.Device.AppVersion = ec.AppVersion
	cfg.Device.LangCode = ec.LangCode
	cfg.Auth.TwoFactorMaxAttempts = ec.TwoFactorMaxAttempts
	cfg.Transport.CallTimeout = ec.CallTimeout
	cfg.Rate.NonBlocking = ec.NonBlocking
	cfg.Rate.MaxFloodWait = ec.MaxFloodWait
	cfg.Rate.JoinsPerMinute = ec.JoinsPerMinute
	cfg.Registry.PageSize = ec.PageSize

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
