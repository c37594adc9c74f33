package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/urfave/cli/v2"

	"github.com/astei/anvilnbt/region"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "anvilnbt:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "anvilnbt",
		Usage: "inspect Minecraft region files and NBT data",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "chunks decoded concurrently per region (0 uses every CPU)",
				EnvVars: []string{"ANVILNBT_WORKERS"},
			},
			&cli.BoolFlag{
				Name:  "lock",
				Usage: "hold a shared lock on each region file while reading it",
			},
			&cli.StringFlag{
				Name:    "log.level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"ANVILNBT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log.format",
				Value: "logfmt",
				Usage: "logfmt or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     "print the chunk trees of a region file",
				ArgsUsage: "<file.mca>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "slot", Value: -1, Usage: "only print this slot (0-1023)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to this file instead of stdout"},
					&cli.BoolFlag{Name: "zstd", Usage: "zstd-compress the output"},
				},
				Action: dumpAction,
			},
			{
				Name:      "stat",
				Usage:     "summarize a region file or a directory of region files",
				ArgsUsage: "<file.mca|dir>",
				Action:    statAction,
			},
			{
				Name:      "nbt",
				Usage:     "print a standalone NBT file such as level.dat",
				ArgsUsage: "<file>",
				Action:    nbtAction,
			},
		},
	}
}

func newLogger(c *cli.Context) (log.Logger, error) {
	var logger log.Logger
	switch format := c.String("log.format"); format {
	case "logfmt":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	var filter level.Option
	switch lvl := c.String("log.level"); lvl {
	case "debug":
		filter = level.AllowDebug()
	case "info":
		filter = level.AllowInfo()
	case "warn":
		filter = level.AllowWarn()
	case "error":
		filter = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}

	logger = level.NewFilter(logger, filter)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

func newLoader(c *cli.Context, logger log.Logger) *region.Loader {
	return region.NewLoader(region.Options{
		Workers:    c.Int("workers"),
		SharedLock: c.Bool("lock"),
		Logger:     logger,
	})
}
