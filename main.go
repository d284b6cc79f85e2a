package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"landmarkmcl/config"
	"landmarkmcl/dataset"
	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

func main() {
	app := &cli.App{
		Name:  "landmarkmcl",
		Usage: "localise a vehicle on a landmark map with a particle filter",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "replay a recorded run through the filter and score it against ground truth",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "run directory holding map_data.txt, control_data.txt, gt_data.txt and observation/",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
					},
					&cli.IntFlag{
						Name:    "particles",
						Aliases: []string{"n"},
						Usage:   "number of particles",
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "seed for filter and sensor noise, 0 for random",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "goroutines used to weight particles",
					},
					&cli.StringFlag{
						Name:  "plot",
						Usage: "write a trajectory plot to `FILE` (png, svg, pdf)",
					},
				},
				Action: runAction,
			},
			{
				Name:      "convert",
				Usage:     "convert a landmark map between the text format and OpenStreetMap",
				ArgsUsage: "IN OUT",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  "origin-lat",
						Usage: "latitude of the local frame origin",
					},
					&cli.Float64Flag{
						Name:  "origin-lon",
						Usage: "longitude of the local frame origin",
					},
					&cli.StringFlag{
						Name:  "tag",
						Value: landmarkmap.DefaultLandmarkTag,
						Usage: "OSM tag key marking landmark nodes",
					},
					&cli.BoolFlag{
						Name:  "all-nodes",
						Usage: "take every OSM node as a landmark",
					},
					&cli.Float64Flag{
						Name:  "max-radius",
						Value: landmarkmap.DefaultMaxRadius,
						Usage: "drop OSM nodes farther than this from the origin [m]",
					},
				},
				Action: convertAction,
			},
			{
				Name:  "simulate",
				Usage: "record a synthetic run on a landmark map",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "map",
						Usage:    "landmark map in the text format",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Usage:    "run directory to create",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "steps",
						Value: 500,
						Usage: "number of timesteps",
					},
					&cli.Float64Flag{
						Name:  "velocity",
						Value: 5,
						Usage: "forward velocity [m/s]",
					},
					&cli.Float64Flag{
						Name:  "yaw-rate",
						Value: 0.05,
						Usage: "yaw rate [rad/s]",
					},
					&cli.Float64Flag{
						Name:  "delta-t",
						Value: 0.1,
						Usage: "time between steps [s]",
					},
					&cli.Float64Flag{
						Name:  "sensor-range",
						Value: 50,
						Usage: "landmarks within this distance are observed [m]",
					},
					&cli.Float64SliceFlag{
						Name:  "start",
						Usage: "starting pose as x,y,theta",
					},
				},
				Action: simulateAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAction(c *cli.Context) error {
	cfg := config.Default()
	if fname := c.String("config"); fname != "" {
		var err error
		if cfg, err = config.Load(fname); err != nil {
			return err
		}
	}
	if c.IsSet("particles") {
		cfg.NumParticles = c.Int("particles")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Uint64("seed")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := c.String("data")
	logger := log.WithFields(log.Fields{
		"run_id":    uuid.NewString(),
		"dataset":   filepath.Base(dir),
		"particles": cfg.NumParticles,
	})

	d, err := dataset.Load(dir, cfg.MapOptions()...)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"landmarks": d.Map.Len(), "steps": len(d.Steps)}).Info("dataset loaded")

	stats, tr, err := replay(c.Context, logger, d, cfg)
	if err != nil {
		return err
	}

	if fname := c.String("plot"); fname != "" {
		if err := tr.Save(fname); err != nil {
			return err
		}
		logger.WithField("plot", fname).Info("trajectory plot saved")
	}

	logger.WithFields(log.Fields{
		"mean_translation": stats.MeanTranslation,
		"mean_yaw":         stats.MeanYaw,
		"max_translation":  stats.MaxTranslation,
		"rms_translation":  stats.RMSTranslation,
	}).Info("run finished")

	if !stats.Within(cfg.MaxTranslationError, cfg.MaxYawError) {
		return cli.Exit(fmt.Sprintf("mean error %.3f m / %.3f rad is above the limit of %.3f m / %.3f rad",
			stats.MeanTranslation, stats.MeanYaw, cfg.MaxTranslationError, cfg.MaxYawError), 1)
	}
	fmt.Printf("ok: mean error %.3f m / %.4f rad over %d steps\n", stats.MeanTranslation, stats.MeanYaw, stats.Steps)
	return nil
}

func isOSM(fname string) bool {
	lower := strings.ToLower(fname)
	return strings.HasSuffix(lower, ".osm") || strings.HasSuffix(lower, ".pbf")
}

// convertAction turns an OSM file into a text map, or a text map into an OSM PBF.
func convertAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("convert needs an input and an output file")
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	var origin *landmarkmap.Projection
	if c.IsSet("origin-lat") || c.IsSet("origin-lon") {
		origin = &landmarkmap.Projection{OriginLat: c.Float64("origin-lat"), OriginLon: c.Float64("origin-lon")}
	}

	if isOSM(in) {
		m, proj, err := landmarkmap.LoadOSM(c.Context, in, landmarkmap.ExtractOptions{
			TagKey:    c.String("tag"),
			AllNodes:  c.Bool("all-nodes"),
			Origin:    origin,
			MaxRadius: c.Float64("max-radius"),
		})
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "failed to create %q", out)
		}
		if err := landmarkmap.WriteText(f, m); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"landmarks":  m.Len(),
			"origin_lat": proj.OriginLat,
			"origin_lon": proj.OriginLon,
		}).Info("landmarks extracted")
		return nil
	}

	if origin == nil {
		return errors.New("converting to OSM needs --origin-lat and --origin-lon")
	}
	m, err := landmarkmap.LoadText(in)
	if err != nil {
		return err
	}
	if err := landmarkmap.SavePBF(out, m, *origin); err != nil {
		return err
	}
	log.WithField("landmarks", m.Len()).Info("landmarks written")
	return nil
}

func simulateAction(c *cli.Context) error {
	m, err := landmarkmap.LoadText(c.String("map"))
	if err != nil {
		return err
	}
	if c.Int("steps") <= 0 {
		return errors.Errorf("steps must be positive, got %d", c.Int("steps"))
	}

	var start particlefilter.Pose
	if s := c.Float64Slice("start"); len(s) > 0 {
		if len(s) != 3 {
			return errors.Errorf("start wants x,y,theta, got %v", s)
		}
		start = particlefilter.Pose{X: s[0], Y: s[1], Theta: s[2]}
	}

	controls := make([]dataset.Control, c.Int("steps"))
	for i := range controls {
		controls[i] = dataset.Control{Velocity: c.Float64("velocity"), YawRate: c.Float64("yaw-rate")}
	}

	d := dataset.Simulate(m, start, c.Float64("delta-t"), c.Float64("sensor-range"), controls)
	if err := dataset.Save(c.String("out"), d); err != nil {
		return err
	}
	log.WithFields(log.Fields{"steps": len(d.Steps), "out": c.String("out")}).Info("run recorded")
	return nil
}
