package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/chakritw/motorsmith/forge/contract"
	supervisorx "github.com/chakritw/motorsmith/forge/supervisor"
	configx "github.com/chakritw/motorsmith/pkg/config"
	_ "github.com/chakritw/motorsmith/pkg/logger/autoload"
	openrouterx "github.com/chakritw/motorsmith/pkg/openrouter"
)

type AppConfig struct {
	Mode  string `envconfig:"MODE" default:"hybrid"`
	Year  string `envconfig:"YEAR" default:"2026"`
	Make  string `envconfig:"MAKE" default:"Apex"`
	Model string `envconfig:"MODEL" default:"Meridian"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("MOTORSMITH")
	backendCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	backend := openrouterx.MustNew(*backendCfg)

	sup, err := supervisorx.New(backend, supervisorx.WithMode(contractx.ExecutionMode(appCfg.Mode)))
	if err != nil {
		log.Fatal().Err(err).Msg("supervisor init failed")
	}

	ctx := context.Background()
	status := sup.Status(ctx)
	log.Info().
		Int("workers", status.WorkersReady).
		Bool("backend_reachable", status.BackendReachable).
		Msg("supervisor ready")

	result := sup.Run(ctx, contractx.BuildRequest{
		ID:    uuid.NewString(),
		Year:  appCfg.Year,
		Make:  appCfg.Make,
		Model: appCfg.Model,
	}, "")

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}
	fmt.Println(string(out))
}
