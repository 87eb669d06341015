package main

import (
	"log"

	corecmd "github.com/Fuu-choco/zoom-line-bot/core/cmd"
	coreconfig "github.com/Fuu-choco/zoom-line-bot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return &appConfig{cfg: cfg}, nil
		},
		Bootstrap: buildApp,
	})
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
}
