package main

import (
	"log"

	corecmd "github.com/subtrackr/bot/core/cmd"
	coreconfig "github.com/subtrackr/bot/core/config"
	"github.com/subtrackr/bot/internal/bot"
)

type carrier struct {
	cfg *coreconfig.Config
}

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return carrier{cfg: cfg}, nil
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.NewApp(cfg.CoreConfig())
		},
	})
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
}
