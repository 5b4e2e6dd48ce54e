package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/tray"
	"github.com/ayusman/mudra/pkg/logger"
)

const drawTimeout = 5 * time.Second

var (
	recognizeSource     string
	recognizeAddr       string
	recognizePatterns   string
	recognizeScorer     string
	recognizeClassifier string
	recognizeDraw       string
	recognizeTray       bool
	recognizeActivation bool
	recognizeVerbose    bool
	recognizeRecord     string
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run the gesture recognizer",
	Long: `Read tracker samples, convert them into gesture strings and match every
completed gesture. Without --patterns, candidates arrive through the
subscription queue and matches are delivered to their subscribers.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	f := recognizeCmd.Flags()
	f.StringVarP(&recognizeSource, "source", "s", "", `Tracker replay file (JSON lines); "-" reads stdin`)
	f.StringVar(&recognizeAddr, "addr", "", "Inspection server listen address, e.g. :8080")
	f.StringVarP(&recognizePatterns, "patterns", "p", "", "Match against a patterns file instead of subscriptions")
	f.StringVar(&recognizeScorer, "scorer", "", "Scorer: distance, classifier or both")
	f.StringVar(&recognizeClassifier, "classifier", "", "Classifier command")
	f.StringVar(&recognizeDraw, "draw", "", "Command invoked with each gesture and its closest pattern")
	f.BoolVar(&recognizeTray, "tray", false, "Show a system tray menu")
	f.BoolVar(&recognizeActivation, "activation", false, "Record only while a sensor is activated")
	f.BoolVarP(&recognizeVerbose, "verbose", "v", false, "Log every movement event")
	f.StringVar(&recognizeRecord, "record", "", "Also write every tracker report to this file for later replay")
}

// applyRecognizeFlags lays explicitly set flags over the loaded config.
func applyRecognizeFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("source") {
		c.TrackerSource = recognizeSource
	}
	if f.Changed("addr") {
		c.Addr = recognizeAddr
	}
	if f.Changed("patterns") {
		c.PatternsFile = recognizePatterns
		c.Mode = config.ModeFile
	}
	if f.Changed("scorer") {
		c.Scorer = recognizeScorer
	}
	if f.Changed("classifier") {
		c.ClassifierCommand = recognizeClassifier
	}
	if f.Changed("draw") {
		c.DrawCommand = recognizeDraw
	}
	if f.Changed("tray") {
		c.Tray = recognizeTray
	}
	if f.Changed("activation") {
		c.UseActivation = recognizeActivation
	}
	if f.Changed("verbose") {
		c.Verbose = recognizeVerbose
	}
}

func openTracker(source string) (tracker.Tracker, error) {
	switch source {
	case "":
		return nil, errors.New("no tracker source: set --source or tracker_source")
	case "-":
		return tracker.NewReplayReader(os.Stdin), nil
	default:
		return tracker.NewReplayTracker(source), nil
	}
}

func runRecognize(cmd *cobra.Command, _ []string) error {
	applyRecognizeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.Named("recognize")

	tr, err := openTracker(cfg.TrackerSource)
	if err != nil {
		return err
	}

	var capture *tracker.Capture
	if recognizeRecord != "" {
		f, err := os.Create(recognizeRecord)
		if err != nil {
			return fmt.Errorf("create trace: %w", err)
		}
		defer f.Close()
		capture = tracker.NewCapture(tr, f)
		tr = capture
	}

	st, b, err := openBroker(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info(ctx, "queue database opened", logger.String("path", st.Path()))

	opts := []app.Option{
		app.WithBroker(b),
		app.WithLogger(logger.Named("recognizer")),
		app.WithDrawHook(plugin.NewHook(cfg.DrawCommand, drawTimeout)),
	}
	if cfg.ClassifierCommand != "" {
		opts = append(opts, app.WithClassifier(
			classifier.NewExec(cfg.ClassifierCommand, config.Millis(cfg.ClassifierTimeoutMS))))
	}
	a := app.New(app.ConfigFrom(cfg), opts...)

	if cfg.Mode == config.ModeFile {
		patterns, err := gesture.LoadPatternFile(cfg.PatternsFile)
		if err != nil {
			return err
		}
		n := a.LoadPatterns(patterns)
		log.Info(ctx, "patterns loaded", logger.String("file", cfg.PatternsFile), logger.Int("count", n))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Addr != "" {
		srv := server.New(server.Config{
			Candidates: a.Candidates(),
			Thresholds: app.ConfigFrom(cfg).Thresholds,
			Store:      st,
		})
		a.OnResult(srv.Results().Publish)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Addr)
		})
	}

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		t.OnQuit(cancel)
		a.OnResult(t.Observe)
	}

	g.Go(func() error {
		// a finished replay ends the whole command
		defer cancel()
		return a.Run(gctx, tr)
	})

	if t != nil {
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		t.Run()
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("recognizer: %w", err)
	}
	if capture != nil {
		if err := capture.Err(); err != nil {
			log.Warn(ctx, "trace recording incomplete", logger.String("file", recognizeRecord), logger.Error(err))
		}
	}
	log.Info(ctx, "recognizer stopped")
	return nil
}
