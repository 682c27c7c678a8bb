// Command sun2d publishes sun position and event entities to Home
// Assistant. The run command starts the daemon; the remaining commands
// either compute sun events locally or call a running daemon's service
// endpoints.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/astro"
	"github.com/home-assistant-blueprints/sun2-go/internal/client"
	"github.com/home-assistant-blueprints/sun2-go/internal/config"
	"github.com/home-assistant-blueprints/sun2-go/internal/core"
	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/location"
	"github.com/home-assistant-blueprints/sun2-go/internal/output"
	"github.com/home-assistant-blueprints/sun2-go/internal/service"
	"github.com/home-assistant-blueprints/sun2-go/internal/shutdown"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

const (
	defaultWSURL   = "ws://supervisor/core/websocket"
	defaultRESTURL = "http://supervisor/core"
	defaultListen  = ":8099"
	defaultTimeout = 10 * time.Second
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	// .env is optional; missing files are fine.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "sun2d",
		Usage: "Sun position and event entities for Home Assistant",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"format"},
				Value:   "default",
				Usage:   "Output format: json, compact, or default",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Use JSON output format (machine-readable)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(_ context.Context, cmd *cli.Command) (context.Context, error) {
			format := cmd.String("output")
			if cmd.Bool("json") {
				format = "json"
			}
			output.ConfigureFromFlags(format, cmd.Bool("no-color"))
			return nil, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			eventsCommand(),
			getLocationCommand(),
			updateLocationCommand(),
			reloadCommand(),
		},
	}

	if err := app.Run(context.Background(), args); err != nil {
		output.Error(err, errors.GetCode(err))
		return 1
	}
	return 0
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ws-url",
				Value:   defaultWSURL,
				Sources: cli.EnvVars("SUN2_WS_URL"),
				Usage:   "Home Assistant WebSocket API URL",
			},
			&cli.StringFlag{
				Name:    "rest-url",
				Value:   defaultRESTURL,
				Sources: cli.EnvVars("SUN2_REST_URL"),
				Usage:   "Home Assistant REST API base URL",
			},
			&cli.StringFlag{
				Name:    "config",
				Value:   "/config/sun2.yaml",
				Sources: cli.EnvVars("SUN2_CONFIG"),
				Usage:   "YAML location config file",
			},
			&cli.StringFlag{
				Name:    "entries",
				Value:   "/data/entries.yaml",
				Sources: cli.EnvVars("SUN2_ENTRIES"),
				Usage:   "Entry persistence file",
			},
			&cli.StringFlag{
				Name:    "listen",
				Value:   defaultListen,
				Sources: cli.EnvVars("SUN2_LISTEN"),
				Usage:   "Service API listen address",
			},
		},
		Action: runDaemon,
	}
}

func runDaemon(_ context.Context, cmd *cli.Command) error {
	token := os.Getenv("SUPERVISOR_TOKEN")
	if token == "" {
		return errors.New(errors.ErrorTypeConfig, "SUPERVISOR_TOKEN environment variable not set")
	}

	log, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer log.Sync()

	coord, ctx := shutdown.New(shutdown.WithLogger(log))
	coord.HandleSignals()

	ws, err := client.Connect(cmd.String("ws-url"), token, defaultTimeout)
	if err != nil {
		return err
	}
	coord.RegisterCleanup("websocket", func(context.Context) error {
		return ws.Close()
	})

	loop := core.NewLoop()
	locations := location.NewStore()
	notifier := location.NewNotifier()
	entries := config.NewStore(cmd.String("entries"))
	publisher := client.NewStatePublisher(cmd.String("rest-url"), token)

	daemon := core.New(core.Config{
		Host:       ws,
		Publisher:  publisher,
		Entries:    entries,
		Locations:  locations,
		Notifier:   notifier,
		Loop:       loop,
		ConfigPath: cmd.String("config"),
		Log:        log,
	})
	if err := daemon.Start(); err != nil {
		return err
	}
	coord.RegisterCleanup("daemon", func(context.Context) error {
		daemon.Stop()
		return nil
	})

	services := service.New(entries, daemon.DefaultParams, log)
	services.SetReload(func() error {
		return daemon.Reload(ctx)
	})
	services.SetOnEntryUpdated(daemon.OnEntryUpdated)
	services.SetRunOnLoop(func(fn func()) error {
		return loop.Do(ctx, fn)
	})

	server := &http.Server{
		Addr:    cmd.String("listen"),
		Handler: service.NewRouter(services, log),
	}
	coord.RegisterCleanup("http server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("service API failed", zap.Error(err))
			coord.Shutdown("service API failed")
		}
	}()

	go loop.Run(ctx)

	log.Info("daemon running",
		zap.String("listen", cmd.String("listen")),
		zap.String("ws_url", cmd.String("ws-url")))

	select {
	case <-ws.Done():
		coord.Shutdown("websocket connection lost")
		return errors.New(errors.ErrorTypeTransport, "websocket connection lost")
	case <-ctx.Done():
		return nil
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Compute a day's sun events for a location",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:     "latitude",
				Required: true,
				Usage:    "Observer latitude in degrees",
			},
			&cli.FloatFlag{
				Name:     "longitude",
				Required: true,
				Usage:    "Observer longitude in degrees",
			},
			&cli.StringFlag{
				Name:  "time-zone",
				Value: "UTC",
				Usage: "IANA timezone for reported times",
			},
			&cli.FloatFlag{
				Name:  "elevation",
				Usage: "Observer elevation above sea level in meters",
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "Date to compute (YYYY-MM-DD, default today)",
			},
		},
		Action: runEvents,
	}
}

func runEvents(_ context.Context, cmd *cli.Command) error {
	tz, err := time.LoadLocation(cmd.String("time-zone"))
	if err != nil {
		return errors.ErrBadTimeZone(cmd.String("time-zone"), err)
	}

	date := time.Now().In(tz)
	if ds := cmd.String("date"); ds != "" {
		parsed, err := time.ParseInLocation("2006-01-02", ds, tz)
		if err != nil {
			return errors.ErrInvalidArgument("date must be YYYY-MM-DD: " + ds)
		}
		date = parsed
	}

	loc := astro.NewLocation(cmd.Float("latitude"), cmd.Float("longitude"), tz)
	obsElv := cmd.Float("elevation")

	queries := []struct {
		name  string
		query astro.EventQuery
	}{
		{"astronomical_dawn", astro.EventQuery{Event: astro.EventDawn, Depression: astro.DepressionAstronomical}},
		{"nautical_dawn", astro.EventQuery{Event: astro.EventDawn, Depression: astro.DepressionNautical}},
		{"dawn", astro.EventQuery{Event: astro.EventDawn, Depression: astro.DepressionCivil}},
		{"sunrise", astro.EventQuery{Event: astro.EventSunrise}},
		{"solar_noon", astro.EventQuery{Event: astro.EventSolarNoon}},
		{"sunset", astro.EventQuery{Event: astro.EventSunset}},
		{"dusk", astro.EventQuery{Event: astro.EventDusk, Depression: astro.DepressionCivil}},
		{"nautical_dusk", astro.EventQuery{Event: astro.EventDusk, Depression: astro.DepressionNautical}},
		{"astronomical_dusk", astro.EventQuery{Event: astro.EventDusk, Depression: astro.DepressionAstronomical}},
		{"solar_midnight", astro.EventQuery{Event: astro.EventSolarMidnight}},
	}

	events := make([]output.SunEvent, 0, len(queries))
	for _, q := range queries {
		query := q.query
		query.Date = date
		query.ObserverElevation = obsElv
		t, ok := loc.EventTime(query)
		events = append(events, output.SunEvent{
			Event: q.name,
			Time:  astro.NearestSecond(t),
			OK:    ok,
		})
	}

	output.Events(date.Format("2006-01-02"), events)
	return nil
}

// serviceAddr flag shared by the service-call commands.
func serviceAddrFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "addr",
		Value:   "http://localhost:8099",
		Sources: cli.EnvVars("SUN2_ADDR"),
		Usage:   "Address of a running daemon",
	}
}

func getLocationCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-location",
		Usage:     "Fetch a configured location from a running daemon",
		ArgsUsage: "<location title>",
		Flags:     []cli.Flag{serviceAddrFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.ErrInvalidArgument("expected exactly one location title")
			}
			req := types.GetLocationRequest{Location: cmd.Args().First()}
			var resp types.GetLocationResponse
			if err := postService(cmd.String("addr"), "get_location", req, &resp); err != nil {
				return err
			}
			output.Data("get-location", resp)
			return nil
		},
	}
}

func updateLocationCommand() *cli.Command {
	return &cli.Command{
		Name:      "update-location",
		Usage:     "Update a configured location on a running daemon",
		ArgsUsage: "<location title>",
		Flags: []cli.Flag{
			serviceAddrFlag(),
			&cli.FloatFlag{Name: "latitude", Usage: "New latitude in degrees"},
			&cli.FloatFlag{Name: "longitude", Usage: "New longitude in degrees"},
			&cli.FloatFlag{Name: "elevation", Usage: "New observer elevation in meters"},
			&cli.StringFlag{Name: "time-zone", Usage: "New IANA timezone"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.ErrInvalidArgument("expected exactly one location title")
			}
			req := types.UpdateLocationRequest{Location: cmd.Args().First()}
			if cmd.IsSet("latitude") {
				v := cmd.Float("latitude")
				req.Latitude = &v
			}
			if cmd.IsSet("longitude") {
				v := cmd.Float("longitude")
				req.Longitude = &v
			}
			if cmd.IsSet("elevation") {
				v := cmd.Float("elevation")
				req.Elevation = &v
			}
			if cmd.IsSet("time-zone") {
				v := cmd.String("time-zone")
				req.TimeZone = &v
			}
			if err := postService(cmd.String("addr"), "update_location", req, nil); err != nil {
				return err
			}
			output.Message("location updated")
			return nil
		},
	}
}

func reloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "reload",
		Usage: "Reload the YAML location config on a running daemon",
		Flags: []cli.Flag{serviceAddrFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := postService(cmd.String("addr"), "reload", struct{}{}, nil); err != nil {
				return err
			}
			output.Message("config reloaded")
			return nil
		},
	}
}

// postService calls a service endpoint on a running daemon.
func postService(addr, name string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpClient := &http.Client{Timeout: defaultTimeout}
	url := fmt.Sprintf("%s/api/services/%s", addr, name)
	httpResp, err := httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(errors.ErrorTypeTransport, err, "failed to reach daemon at %s", addr)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			return errors.NewWithCode(errors.ErrorTypeTransport, errBody.Code, errBody.Error)
		}
		return errors.Newf(errors.ErrorTypeTransport, "%s failed with status %d", name, httpResp.StatusCode)
	}

	if resp != nil {
		if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
