package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/waste-bin-controller/cmd"
)

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=./gen/config.yaml ./internal/pkg/server/openapi.json

func main() {
	app := &cli.App{
		Name:  "waste-bin-controller",
		Usage: "classifies waste images and opens bins on an ESP32 bin unit over MQTT",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the broker link",
				Action: cmd.ServeCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "env-file",
						EnvVars: []string{"ENV_FILE"},
						Usage:   "dotenv files loaded before the environment is parsed",
					},
					&cli.StringFlag{
						Name:    "log-level",
						EnvVars: []string{"LOG_LEVEL"},
						Value:   "INFO",
					},
					&cli.StringFlag{
						Name:    "http-addr",
						EnvVars: []string{"HTTP_ADDR"},
						Value:   "0.0.0.0:8000",
					},
				},
			},
			{
				Name:      "hash-key",
				Usage:     "print the API_KEY_HASH for a key, generating one when omitted",
				ArgsUsage: "[key]",
				Action:    cmd.HashKeyCommand,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
