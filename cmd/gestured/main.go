// Command gestured runs the gesture device daemon: it samples the IMU,
// classifies the sliding window, drives the RGB indicator, and pushes
// qualifying results to attached peers over HTTP/SSE. All subsystems must
// come up or the process halts; there is no degraded mode for a
// single-purpose controller.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/gesture.link/internal/config"
	"github.com/banshee-data/gesture.link/internal/db"
	"github.com/banshee-data/gesture.link/internal/gesture"
	"github.com/banshee-data/gesture.link/internal/gesture/softmax"
	"github.com/banshee-data/gesture.link/internal/imu"
	"github.com/banshee-data/gesture.link/internal/indicator"
	"github.com/banshee-data/gesture.link/internal/link"
	"github.com/banshee-data/gesture.link/internal/monitoring"
)

var (
	devMode       = flag.Bool("dev", false, "Run in dev mode: replayed sample trace, mock LED")
	listen        = flag.String("listen", ":8080", "HTTP listen address for peers and the status API")
	port          = flag.String("port", "/dev/ttyACM0", "IMU serial port (ignored in dev mode)")
	baud          = flag.Int("baud", imu.DefaultBaudRate, "IMU serial baud rate")
	fixtures      = flag.String("fixtures", "fixtures.txt", "Sample trace replayed in dev mode")
	modelPath     = flag.String("model", "config/model.defaults.json", "Classifier model file")
	configPath    = flag.String("config", "", "Optional tuning config JSON")
	dbFile        = flag.String("db", "gesture_events.db", "Event database file")
	migrationsDir = flag.String("migrations", "migrations", "Schema migrations directory")
	ledsDir       = flag.String("leds", "/sys/class/leds", "Linux leds class directory")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTuning()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	labels := gesture.Labels(cfg.GetLabels())

	model, err := softmax.Load(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	if len(model.Labels()) != len(labels) {
		log.Fatalf("model has %d labels, config has %d", len(model.Labels()), len(labels))
	}
	windowSize := model.FrameSize()
	if cfg.WindowSize != nil && *cfg.WindowSize != windowSize {
		log.Fatalf("config window_size %d does not match model frame size %d", *cfg.WindowSize, windowSize)
	}

	var source gesture.SampleSource
	if *devMode {
		trace, err := imu.LoadFixture(*fixtures)
		if err != nil {
			log.Fatalf("failed to load fixtures: %v", err)
		}
		source = imu.NewReplaySource(trace, true)
		log.Printf("dev mode: replaying %d samples from %s", len(trace), *fixtures)
	} else {
		serialSource, err := imu.Open(*port, *baud)
		if err != nil {
			log.Fatalf("failed to open IMU: %v", err)
		}
		defer serialSource.Close()
		source = serialSource
	}

	var led indicator.Indicator
	if *devMode {
		led = &indicator.Mock{}
	} else {
		sysfsLED, err := indicator.NewSysfsLED(*ledsDir, "red:status", "green:status", "blue:status")
		if err != nil {
			log.Fatalf("failed to initialize LED: %v", err)
		}
		led = sysfsLED
	}

	database, err := db.New(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()
	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	state := gesture.NewState()
	linkSrv := link.NewServer(cfg.GetDeviceName())

	// The event log records label changes, not every re-confirmation of
	// the same gesture; failures are logged and never stall the producer.
	lastRecorded := gesture.NoGesture - 1
	runner, err := gesture.NewRunner(gesture.RunnerConfig{
		Source:       source,
		Model:        model,
		State:        state,
		Labels:       labels,
		WindowSize:   windowSize,
		WindowStep:   cfg.GetWindowStep(),
		SamplePeriod: cfg.GetSamplePeriod(),
		SettleDelay:  cfg.GetSettleDelay(),
		OnPublish: func(r gesture.Result) {
			if r.Index == lastRecorded {
				return
			}
			lastRecorded = r.Index
			if err := database.RecordGesture(labels.Name(r.Index), r.Confidence, r.Sequence); err != nil {
				monitoring.Logf("[DB] failed to record gesture: %v", err)
			}
		},
	})
	if err != nil {
		log.Fatalf("failed to create inference runner: %v", err)
	}

	ledConsumer := indicator.NewConsumer(indicator.ConsumerConfig{
		State:     state,
		Indicator: led,
		Labels:    labels,
		Threshold: cfg.GetIndicatorThreshold(),
		Dwell:     cfg.GetGestureDwell(),
		Interval:  cfg.GetIndicatorInterval(),
	})

	linkConsumer := link.NewConsumer(link.ConsumerConfig{
		State:     state,
		Server:    linkSrv,
		Labels:    labels,
		Threshold: cfg.GetTransmitThreshold(),
		Interval:  cfg.GetLinkInterval(),
		OnNotify: func(n link.Notification, peers int) {
			if err := database.RecordNotification(n.Label, n.Confidence, n.Sequence, peers); err != nil {
				monitoring.Logf("[DB] failed to record notification: %v", err)
			}
		},
	})

	mux := http.NewServeMux()
	link.AttachRoutes(mux, linkSrv, state, labels, database)
	httpSrv := &http.Server{Addr: *listen, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for name, run := range map[string]func(context.Context) error{
		"inference": runner.Run,
		"indicator": ledConsumer.Run,
		"link":      linkConsumer.Run,
	} {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("%s loop exited: %v", name, err)
			}
		}(name, run)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("advertising %q on %s", linkSrv.Name(), *listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Print("shutting down")
	cancel()
	if err := httpSrv.Shutdown(context.Background()); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	wg.Wait()
}
