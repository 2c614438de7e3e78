package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/voxelry/voxd/featureflag"
	"github.com/voxelry/voxd/gpu"
	voxdhttp "github.com/voxelry/voxd/http"
	"github.com/voxelry/voxd/scene"
	voxdws "github.com/voxelry/voxd/websocket"
	"golang.org/x/net/websocket"
)

var (
	// The voxd version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "voxd_info",
		Help:        "Voxd information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config struct introspectable so the cli package can generate
// command-line options from it.
var _ = reflect.TypeOf(config{})

type config struct {
	Addr         string       `cli:""        env:"VOXD_ADDR"          help:"Listening address for client connections."`
	AdminAddr    string       `cli:""        env:"VOXD_ADMIN_ADDR"    help:"Admin listening address."`
	ScenesDir    string       `cli:""        env:"VOXD_SCENES_DIR"    help:"The directory that contains the .vox scene files to serve."`
	LogLevel     string       `cli:""        env:"VOXD_LOG_LEVEL"     help:"Log level (debug|info|warning|error)."`
	LogIndent    bool         `cli:""        env:"VOXD_LOG_INDENT"    help:"Indent logs."`
	FeatureFlags []string     `cli:",hidden" env:"VOXD_FEATURE_FLAGS" help:"Comma separated feature flags."`
	Events       eventsConfig `cli:",hidden" env:"-"                  help:"Event pusher configuration."`
	Version      bool         `cli:""        env:"-"                  help:"Show version."`
	Help         bool         `cli:""        env:"-"                  help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"VOXD_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"VOXD_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"VOXD_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"VOXD_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:      ":4600",
		AdminAddr: ":18290",
		ScenesDir: "scenes",
		LogLevel:  logs.InfoLevel.String(),
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the voxd scene packing server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "voxd",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	p := &pipeline{
		dir:   conf.ScenesDir,
		flags: featureflag.New(conf.FeatureFlags),
	}

	if err := p.load(); err != nil {
		logs.Fatal(errors.New("loading scenes failed").Wrap(err))
	}

	var service http.ServeMux
	service.Handle("/health", voxdhttp.HandleWithCORS(http.HandlerFunc(voxdhttp.HandleHealthCheck)))
	service.Handle("/version", voxdhttp.HandleWithCORS(voxdhttp.HandleVersion(version)))
	service.Handle("/scenes", voxdhttp.HandleWithCORS(voxdhttp.HandleScenes(&p.store)))
	service.Handle("/buffers/trees", voxdhttp.HandleWithCORS(voxdhttp.HandleBuffer(p.treeBytes)))
	service.Handle("/buffers/nodes", voxdhttp.HandleWithCORS(voxdhttp.HandleBuffer(p.nodeBytes)))
	service.Handle("/buffers/leaves", voxdhttp.HandleWithCORS(voxdhttp.HandleBuffer(p.leafBytes)))
	service.Handle("/reload", voxdhttp.HandleWithCORS(voxdhttp.HandleReload(p.reload)))
	service.Handle("/watch", websocket.Server{
		Handler: p.hub.Handler(),
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", voxdhttp.HandleHealthCheck)
	admin.HandleFunc("/ready", voxdhttp.HandleReadyCheck(p.ready))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("addr", conf.Addr).
		WithTag("scenes_dir", conf.ScenesDir).
		Info("starting voxd server")

	voxdhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			voxdhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// pipeline owns the scene store and the packed buffers, and rebuilds both
// on reload. The mutex orders repacking against buffer serving.
type pipeline struct {
	dir   string
	flags featureflag.FeatureFlag
	hub   voxdws.Hub
	store scene.Store

	mutex     sync.RWMutex
	allocator gpu.Allocator
	packed    bool
}

func (p *pipeline) load() error {
	scenes, err := scene.LoadDir(p.dir)
	if err != nil {
		return err
	}

	p.flags.IfSet(featureflag.FlagDumpTreesOnLoad, func() {
		for _, sc := range scenes {
			fmt.Fprintf(os.Stderr, "tree %s:\n", sc.Name)
			sc.Tree.Dump(os.Stderr)
		}
	})

	p.store.Replace(scenes)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	trees := p.store.Trees()
	p.allocator.Allocate(trees)

	p.flags.IfNotSet(featureflag.FlagDisablePackValidation, func() {
		for i, t := range trees {
			if !p.allocator.Validate(t, i) {
				err = errors.New("packed buffers do not match tree").
					WithTag("index", i).
					WithTag("name", scenes[i].Name)
				return
			}
		}
	})
	if err != nil {
		return err
	}

	p.flags.IfSet(featureflag.FlagDumpPackedMemoryOnLoad, func() {
		p.allocator.Dump(os.Stderr)
	})

	p.allocator.LogStats()
	p.packed = true
	return nil
}

func (p *pipeline) reload() error {
	if err := p.load(); err != nil {
		return err
	}

	p.flags.IfNotSet(featureflag.FlagDisableWatchBroadcast, func() {
		p.hub.Broadcast(voxdws.Event{
			Type:      "buffers-updated",
			Scenes:    p.store.Len(),
			Timestamp: time.Now(),
		})
	})
	return nil
}

func (p *pipeline) ready() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.packed
}

func (p *pipeline) treeBytes() []byte {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.allocator.TreeBytes()
}

func (p *pipeline) nodeBytes() []byte {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.allocator.NodePoolBytes()
}

func (p *pipeline) leafBytes() []byte {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.allocator.LeafDataBytes()
}

func validateConfig(conf config) error {
	if conf.ScenesDir == "" {
		return errors.New("scenes directory is not set")
	}

	if info, err := os.Stat(conf.ScenesDir); err != nil {
		return errors.New("scenes directory is not readable").
			WithTag("dir", conf.ScenesDir).
			Wrap(err)
	} else if !info.IsDir() {
		return errors.New("scenes path is not a directory").
			WithTag("dir", conf.ScenesDir)
	}

	return nil
}
