package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/app"
	"github.com/Speshl/gorrc_drive/internal/config"
)

func main() {
	bootstrap, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed creating logger: %s", err)
	}
	zap.ReplaceGlobals(bootstrap)

	tubFlag := &cli.StringFlag{Name: "tub", Usage: "tub id on the tub server", Required: true}
	clipFlag := &cli.IntFlag{Name: "clip", Usage: "clip index"}

	cliApp := &cli.App{
		Name:  "gorrc_drive",
		Usage: "drive a car from browser, gamepad or keyboard input and edit recorded tubs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "optional yaml config file, GORRC_ env vars override it",
				EnvVars: []string{"GORRC_CONFIG"},
			},
		},
		Action: runDrive,
		Commands: []*cli.Command{
			{
				Name:   "drive",
				Usage:  "start a drive session",
				Action: runDrive,
			},
			{
				Name:  "tub",
				Usage: "review and edit a recorded tub",
				Subcommands: []*cli.Command{
					{
						Name:  "show",
						Usage: "list clips and their thumbnail frames",
						Flags: []cli.Flag{tubFlag},
						Action: withTubTool(func(c *cli.Context, tool *app.TubTool) error {
							return tool.Show(c.Context, c.String("tub"))
						}),
					},
					{
						Name:  "split",
						Usage: "split a clip in two at a frame",
						Flags: []cli.Flag{tubFlag, clipFlag, &cli.IntFlag{Name: "frame", Usage: "frame index within the clip", Required: true}},
						Action: withTubTool(func(c *cli.Context, tool *app.TubTool) error {
							return tool.Split(c.Context, c.String("tub"), c.Int("clip"), c.Int("frame"))
						}),
					},
					{
						Name:  "mark",
						Usage: "delete clips from the tub",
						Flags: []cli.Flag{tubFlag, &cli.IntSliceFlag{Name: "clip", Usage: "clip index, may be repeated", Required: true}},
						Action: withTubTool(func(c *cli.Context, tool *app.TubTool) error {
							return tool.Delete(c.Context, c.String("tub"), c.IntSlice("clip"))
						}),
					},
					{
						Name:  "save",
						Usage: "replace the tub's clips with the clips in a json file",
						Flags: []cli.Flag{tubFlag, &cli.StringFlag{Name: "file", Usage: "json file with a clips array", Required: true}},
						Action: withTubTool(func(c *cli.Context, tool *app.TubTool) error {
							return tool.Save(c.Context, c.String("tub"), c.String("file"))
						}),
					},
					{
						Name:  "thumbs",
						Usage: "write a clip's thumbnails to a directory",
						Flags: []cli.Flag{tubFlag, clipFlag, &cli.StringFlag{Name: "out", Usage: "output directory", Value: "thumbs"}},
						Action: withTubTool(func(c *cli.Context, tool *app.TubTool) error {
							return tool.Thumbs(c.Context, c.String("tub"), c.Int("clip"), c.String("out"))
						}),
					},
					{
						Name:  "play",
						Usage: "print a clip's frame urls at the playback rate",
						Flags: []cli.Flag{tubFlag, clipFlag},
						Action: withTubTool(func(c *cli.Context, tool *app.TubTool) error {
							return tool.Play(c.Context, c.String("tub"), c.Int("clip"))
						}),
					},
				},
			},
		},
	}

	err = cliApp.Run(os.Args)
	if err != nil {
		zap.S().Errorf("shutdown with error: %s", err)
		_ = zap.L().Sync()
		os.Exit(1)
	}
	zap.S().Info("shutdown successfully")
	_ = zap.L().Sync()
}

func setup(c *cli.Context) (config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.GetConfig(c.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogCfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger.Sugar(), nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Dev {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level
	return zapCfg.Build()
}

func runDrive(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	var client app.RelayClient
	if cfg.ServerCfg.Server != "" {
		socketClient, err := app.NewRelayClient(cfg.ServerCfg)
		if err != nil {
			return err
		}
		client = socketClient
	}

	driveApp, err := app.NewApp(cfg, client, os.Stdout, logger)
	if err != nil {
		return err
	}

	err = driveApp.RegisterHandlers()
	if err != nil {
		return err
	}
	return driveApp.Start(c.Context)
}

func withTubTool(action func(*cli.Context, *app.TubTool) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, logger, err := setup(c)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		c.Context = ctx

		err = action(c, app.NewTubTool(cfg.TubCfg, os.Stdout, logger))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
