package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/broker"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/pkg/logger"
)

var (
	subscribeName    string
	subscribePattern string
	subscribeFile    string
	subscribeID      int
	subscribePlugin  string
	subscribeAction  string
	subscribeParams  string
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Register gestures and print their detections",
	Long: `Register one gesture (--name and --pattern) or every line of a patterns
file (--file) with a running recognizer, then print each detection sent to
this subscriber. With --plugin, every detection also runs a plugin action.`,
	RunE: runSubscribe,
}

func init() {
	rootCmd.AddCommand(subscribeCmd)

	f := subscribeCmd.Flags()
	f.StringVarP(&subscribeName, "name", "n", "", "Gesture name")
	f.StringVar(&subscribePattern, "pattern", "", "Gesture string, e.g. j_.j_.")
	f.StringVarP(&subscribeFile, "file", "f", "", "Patterns file to register")
	f.IntVar(&subscribeID, "id", 0, "Subscriber id (default: process id)")
	f.StringVar(&subscribePlugin, "plugin", "", "Plugin to run for each detection")
	f.StringVar(&subscribeAction, "action", "", "Plugin action")
	f.StringVar(&subscribeParams, "params", "", "JSON parameters passed to the plugin action")
}

func runSubscribe(cmd *cobra.Command, _ []string) error {
	if subscribeFile == "" && (subscribeName == "" || subscribePattern == "") {
		return errors.New("either --file or both --name and --pattern are required")
	}
	if subscribeFile == "" && !gesture.String(subscribePattern).WellFormed() {
		return fmt.Errorf("pattern %q is not a gesture string", subscribePattern)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.Named("subscribe")

	id := subscribeID
	if id == 0 {
		id = os.Getpid()
	}

	var dispatcher *plugin.Dispatcher
	if subscribePlugin != "" {
		var params json.RawMessage
		if subscribeParams != "" {
			if !json.Valid([]byte(subscribeParams)) {
				return errors.New("--params is not valid JSON")
			}
			params = json.RawMessage(subscribeParams)
		}
		m := plugin.NewManager(cfg.PluginDir)
		if err := m.Discover(); err != nil {
			return err
		}
		log.Debug(ctx, "plugins discovered", logger.String("dir", m.PluginDir()), logger.Int("count", len(m.List())))
		d, err := plugin.NewDispatcher(m, plugin.NewExecutor(pluginTimeout), subscribePlugin, subscribeAction, params)
		if err != nil {
			return err
		}
		dispatcher = d
	}

	st, b, err := openBroker(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// open our queue first so no detection is missed
	q, err := b.Detections(ctx, id)
	if err != nil {
		return err
	}

	if subscribeFile != "" {
		n, err := b.SubscribeFile(ctx, subscribeFile, id)
		if err != nil {
			return err
		}
		log.Info(ctx, "patterns registered", logger.Int("subscriber", id), logger.Int("count", n))
	} else {
		sub := broker.Subscription{SubscriberID: id, Name: subscribeName, Pattern: gesture.String(subscribePattern)}
		if err := b.Subscribe(ctx, sub); err != nil {
			return err
		}
		log.Info(ctx, "gesture registered", logger.Int("subscriber", id), logger.String("name", subscribeName))
	}

	out := cmd.OutOrStdout()
	for {
		det, err := b.NextDetection(ctx, q)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, broker.ErrMalformedMessage):
			log.Warn(ctx, "skipping malformed detection", logger.Error(err))
			continue
		case err != nil:
			return err
		}

		fmt.Fprintln(out, det.Name)
		if dispatcher != nil {
			// failures are logged by the dispatcher
			_ = dispatcher.Dispatch(ctx, id, det.Name)
		}
	}
}
