// Command cvlab runs the computer vision demo catalog and the vehicle
// counter.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"cvlab/internal/app"
	"cvlab/internal/config"
	"cvlab/internal/demo"
	"cvlab/internal/model"
	"cvlab/internal/samples"
)

const (
	flagEnv     = "env"
	flagDisplay = "display"
	flagSet     = "set"
	flagGroup   = "group"
	flagVideo   = "video"
	flagMode    = "mode"
	flagFrames  = "frames"
	flagOut     = "out"
	flagLimit   = "limit"
	flagKind    = "kind"
	flagCount   = "count"
	flagPort    = "port"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cvlab:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "cvlab",
		Usage: "run OpenCV demos and count vehicles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagEnv,
				Value: ".env",
				Usage: "load settings from `FILE` before the environment",
			},
			&cli.StringFlag{
				Name:  flagDisplay,
				Usage: "where images go: window, file or none (overrides DISPLAY_MODE)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list the demo catalog",
				Action: listAction,
			},
			{
				Name:      "run",
				Usage:     "run one demo, or a whole group",
				ArgsUsage: "[NAME]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  flagSet,
						Usage: "demo parameter as `KEY=VALUE`, repeatable",
					},
					&cli.StringFlag{
						Name:  flagGroup,
						Usage: "run every demo in `GROUP`",
					},
				},
				Action: runAction,
			},
			{
				Name:  "count",
				Usage: "count vehicles crossing the line",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagVideo,
						Usage: "video `PATH` (defaults to COUNTER_VIDEO, then a synthetic clip)",
					},
					&cli.StringFlag{
						Name:  flagMode,
						Usage: "counting mode: crossing or per-frame",
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Usage: "frames of the synthetic clip to use, 0 for all",
					},
				},
				Action: countAction,
			},
			{
				Name:  "samples",
				Usage: "write every synthetic sample image",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagOut,
						Value: "samples",
						Usage: "output `DIR`",
					},
				},
				Action: samplesAction,
			},
			{
				Name:  "history",
				Usage: "show recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagLimit,
						Value: 20,
						Usage: "number of runs",
					},
					&cli.StringFlag{
						Name:  flagKind,
						Usage: "only runs of `KIND` (demo or count)",
					},
				},
				Action: historyAction,
			},
			{
				Name:  "serve",
				Usage: "serve the viewer page, run history and logs over HTTP",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagCount,
						Usage: "stream a counter session to viewers",
					},
					&cli.StringFlag{
						Name:  flagVideo,
						Usage: "video `PATH` for the streamed counter session",
					},
					&cli.IntFlag{
						Name:  flagPort,
						Usage: "listen port (overrides PORT)",
					},
				},
				Action: serveAction,
			},
		},
	}
}

// loadConfig applies the global flags on top of the environment.
func loadConfig(c *cli.Context) *config.Config {
	cfg := config.LoadFile(c.String(flagEnv))
	if d := c.String(flagDisplay); d != "" {
		cfg.Display = strings.ToLower(d)
	}
	return cfg
}

// withApp builds the App for one command and closes it afterwards.
func withApp(cfg *config.Config, fn func(a *app.App) error) (err error) {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func listAction(c *cli.Context) error {
	cfg := loadConfig(c)
	cfg.Display = config.DisplayNone
	return withApp(cfg, func(a *app.App) error {
		w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tNAME\tINPUTS\tSUMMARY")
		for _, d := range a.Registry().List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Group, d.Name, strings.Join(d.Inputs, ","), d.Summary)
		}
		return w.Flush()
	})
}

func runAction(c *cli.Context) error {
	params, err := demo.ParseParams(c.StringSlice(flagSet))
	if err != nil {
		return err
	}
	name, group := c.Args().First(), c.String(flagGroup)
	if (name == "") == (group == "") {
		return cli.Exit("give a demo NAME or --group, not both", 2)
	}

	return withApp(loadConfig(c), func(a *app.App) error {
		if group != "" {
			runs, err := a.RunGroup(c.Context, group, params)
			for _, run := range runs {
				printRun(c, run)
			}
			return err
		}

		run, err := a.RunDemo(c.Context, name, params)
		if run != nil {
			printRun(c, run)
		}
		return err
	})
}

func countAction(c *cli.Context) error {
	return withApp(loadConfig(c), func(a *app.App) error {
		run, res, err := a.Count(c.Context, app.CountOptions{
			Video:  c.String(flagVideo),
			Mode:   c.String(flagMode),
			Frames: c.Int(flagFrames),
		})
		if run != nil {
			fmt.Fprintf(c.App.Writer, "%s: %d vehicles in %d frames (%s)\n", run.Input, res.Total, res.Frames, run.Status)
		}
		return err
	})
}

func samplesAction(c *cli.Context) error {
	cfg := loadConfig(c)
	cfg.Display = config.DisplayNone
	return withApp(cfg, func(a *app.App) error {
		paths, err := a.Samples().WriteAll(c.String(flagOut))
		for _, p := range paths {
			fmt.Fprintln(c.App.Writer, p)
		}
		if err == nil {
			fmt.Fprintf(c.App.Writer, "wrote %d of %d samples\n", len(paths), len(samples.Names()))
		}
		return err
	})
}

func historyAction(c *cli.Context) error {
	cfg := loadConfig(c)
	cfg.Display = config.DisplayNone
	return withApp(cfg, func(a *app.App) error {
		runs, err := a.History(&model.RunFilter{Kind: c.String(flagKind), Limit: c.Int(flagLimit)})
		if errors.Is(err, app.ErrHistoryDisabled) {
			return cli.Exit(err.Error(), 2)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tKIND\tNAME\tSTATUS\tTOTAL\tDURATION\tID")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.Kind, r.Name, r.Status, r.Total, r.Duration().Round(time.Millisecond), r.ID)
		}
		return w.Flush()
	})
}

func serveAction(c *cli.Context) error {
	cfg := loadConfig(c)
	if cfg.Display == config.DisplayWindow {
		// Frames go to the browser instead.
		cfg.Display = config.DisplayNone
	}
	if p := c.Int(flagPort); p > 0 {
		cfg.Port = p
	}
	return withApp(cfg, func(a *app.App) error {
		return a.Serve(c.Context, app.ServeOptions{
			Count: c.Bool(flagCount),
			Video: c.String(flagVideo),
		})
	})
}

func printRun(c *cli.Context, run *model.Run) {
	line := fmt.Sprintf("%-20s %-8s %s", run.Name, run.Status, run.Duration().Round(time.Millisecond))
	if run.Error != "" {
		line += "  " + run.Error
	}
	fmt.Fprintln(c.App.Writer, line)
}
