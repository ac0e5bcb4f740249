package main

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/featureflag"
	zhttp "github.com/aukilabs/zonecull/http"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/render"
	"github.com/aukilabs/zonecull/scene"
	"github.com/aukilabs/zonecull/scenefile"
	zwebsocket "github.com/aukilabs/zonecull/websocket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

var (
	// The zonecull version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "zonecull_info",
		Help:        "Zonecull information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	AdminAddr       string        `cli:""        env:"ZONECULL_ADMIN_ADDR"       help:"Admin listening address."`
	SceneFile       string        `cli:""        env:"ZONECULL_SCENE_FILE"       help:"The YAML scene description to render."`
	Frames          int           `cli:""        env:"ZONECULL_FRAMES"           help:"The number of frames to render, 0 renders until stopped."`
	FrameDuration   time.Duration `cli:""        env:"ZONECULL_FRAME_DURATION"   help:"The duration of a frame."`
	SegmentDuration time.Duration `cli:",hidden" env:"ZONECULL_SEGMENT_DURATION" help:"The time the camera takes to go from a waypoint to the next."`
	Passes          []string      `cli:""        env:"ZONECULL_PASSES"           help:"Comma separated render passes (diffuse|reflect|shadow|other)."`
	ObjectTypes     []string      `cli:""        env:"ZONECULL_OBJECT_TYPES"     help:"Comma separated object types to render."`
	ForceInclude    float64       `cli:",hidden" env:"ZONECULL_FORCE_INCLUDE"    help:"Distance within which culled items are still rendered, 0 disables it."`
	LogLevel        string        `cli:""        env:"ZONECULL_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent       bool          `cli:""        env:"ZONECULL_LOG_INDENT"       help:"Indent logs."`
	FeatureFlags    []string      `cli:",hidden" env:"ZONECULL_FEATURE_FLAGS"    help:"Comma separated feature flags"`
	Version         bool          `cli:""        env:"-"                         help:"Show version."`
	Help            bool          `cli:""        env:"-"                         help:"Show help."`
}

func main() {
	conf := config{
		AdminAddr:       ":18190",
		SceneFile:       "scenes/village.yaml",
		FrameDuration:   time.Millisecond * 33,
		SegmentDuration: time.Second * 5,
		Passes:          []string{models.DiffusePass.String()},
		ObjectTypes:     []string{"all"},
		LogLevel:        logs.InfoLevel.String(),
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Renders a zoned scene headlessly and serves culling statistics.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	loop, err := newFrameLoop(conf)
	if err != nil {
		logs.Fatal(err)
	}

	admin := zhttp.NewAdminServer(zhttp.AdminConfig{
		Addr:    conf.AdminAddr,
		Version: version,
		RunID:   loop.runID,
		Ready:   loop.Started,
		Zones:   loop.scene.Zones,
		Spatial: loop.scene.Grid,
		Frames: (&zwebsocket.FrameStreamer{
			Source:      loop.manager,
			IdleTimeout: time.Minute,
		}).Server(ctx),
	})

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("run_id", loop.runID).
		WithTag("scene_file", conf.SceneFile).
		WithTag("feature_flags", featureflag.New(conf.FeatureFlags).Flags()).
		Info("starting zonecull")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Stops the admin server once the frames are rendered.
		defer cancel()
		return loop.Run(ctx)
	})
	g.Go(func() error {
		return zhttp.ListenAndServe(ctx, loop.runID, admin)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logs.Fatal(err)
	}
}

func newFrameLoop(conf config) (*frameLoop, error) {
	if conf.FrameDuration <= 0 {
		return nil, errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	f, err := scenefile.LoadFile(conf.SceneFile)
	if err != nil {
		return nil, err
	}

	s, err := f.Build()
	if err != nil {
		return nil, errors.New("building scene failed").
			WithTag("scene_file", conf.SceneFile).
			Wrap(err)
	}

	mask, err := parseObjectTypes(conf.ObjectTypes)
	if err != nil {
		return nil, err
	}

	passes := make([]models.PassType, len(conf.Passes))
	for i, p := range conf.Passes {
		passes[i] = models.ParsePassType(p)
	}

	manager := scene.NewManager(scene.Config{
		Zones:     s.Zones,
		Container: s.Grid,
		Lights:    s.Lights,
		Passes:    render.NewBatchManager(),
		Camera:    s.Camera,
		Flags:     featureflag.New(conf.FeatureFlags),
	})
	s.AddOccluders(manager)

	if conf.ForceInclude > 0 {
		manager.AddPostCullHook(scene.ForceIncludeHook(models.ItemObjectType, float32(conf.ForceInclude)))
	}

	return &frameLoop{
		runID:           uuid.NewString(),
		scene:           s,
		manager:         manager,
		frames:          conf.Frames,
		frameDuration:   conf.FrameDuration,
		segmentDuration: conf.SegmentDuration,
		passes:          passes,
		mask:            mask,
	}, nil
}

func parseObjectTypes(names []string) (models.TypeMask, error) {
	if len(names) == 0 {
		return models.AllObjectTypes, nil
	}

	var mask models.TypeMask
	for _, n := range names {
		m, ok := models.ParseTypeMask(n)
		if !ok {
			return 0, errors.New("unknown object type").WithTag("type", n)
		}
		mask |= m
	}
	return mask, nil
}
