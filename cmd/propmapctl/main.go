package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "propmapctl",
		Usage: "Inspect registry regions, geocoding and search against a propmap backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Dashboard backend base URL",
				Value:   "http://localhost:8000/api",
				EnvVars: []string{"BACKEND_URL"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Per-request timeout",
				Value:   60 * time.Second,
				EnvVars: []string{"REGION_FETCH_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "geocoder-url",
				Usage:   "Nominatim base URL",
				Value:   "https://nominatim.openstreetmap.org",
				EnvVars: []string{"GEOCODER_URL"},
			},
			&cli.StringFlag{
				Name:    "user-agent",
				Usage:   "User-Agent sent to the geocoder",
				Value:   "propmapctl/0.1",
				EnvVars: []string{"GEOCODER_USER_AGENT"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of tables",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log requests to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "regions",
				Usage:  "List the supported registry regions",
				Action: regionsCommand,
			},
			{
				Name:      "fetch",
				Usage:     "Fetch one or more region registries and print their statistics",
				ArgsUsage: "<region>...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Maximum concurrent fetches",
						Value: 4,
					},
				},
				Action: fetchCommand,
			},
			{
				Name:      "geocode",
				Usage:     "Resolve free text with the geocoder",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum places returned",
						Value: 2,
					},
				},
				Action: geocodeCommand,
			},
			{
				Name:      "search",
				Usage:     "Run a search over tracked properties and loaded regions",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "region",
						Aliases: []string{"r"},
						Usage:   "Region to load before searching (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "no-geocode",
						Usage: "Disable the geocoding fallback",
					},
				},
				Action: searchCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
