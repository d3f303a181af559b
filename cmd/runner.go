package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/rioplatense/aires/internal/server"
	"github.com/rioplatense/aires/internal/services"
	"github.com/rioplatense/aires/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	playlists services.PlaylistService
	locations services.LocationService
	weather   services.WeatherProvider
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Logger    *log.Logger
	Playlists services.PlaylistService
	Locations services.LocationService
	Weather   services.WeatherProvider
}

// NewRunner creates a new Runner with the provided configuration, building
// default service implementations for anything not injected.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Playlists == nil {
		spotify := opts.Config.Credentials.Spotify
		tokens := services.NewTokenCache(spotify.ClientID, spotify.ClientSecret)
		opts.Playlists = services.NewSpotifyService(tokens, spotify.Market)
	}
	if opts.Locations == nil {
		opts.Locations = services.NewGeoResolver()
	}
	if opts.Weather == nil {
		opts.Weather = services.NewWeatherService()
	}

	return &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		playlists: opts.Playlists,
		locations: opts.Locations,
		weather:   opts.Weather,
	}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		serveCommand(r),
		initCommand(r),
	}
}

// Serve assembles the router and blocks serving HTTP until the process exits.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))

	router.Handler(&server.HealthHandler{})
	router.Handler(server.NewSpotifyHandler(r.playlists, r.logger))
	router.Handler(server.NewWeatherHandler(r.locations, r.weather, r.config.Weather, r.logger))

	port := r.config.Server.Port
	if p := cmd.Int("port"); p != 0 {
		port = int(p)
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, port)
	r.logger.Info("listening", "addr", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: server.CORS()(router),
	}
	return srv.ListenAndServe()
}

// Init writes a starter config.toml from the embedded example.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("created config file", "path", path)
	return nil
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP relay",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path for the configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Init,
	}
}
