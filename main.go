package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tweetgo/bridge"
)

var version = "dev"

// newPlatform builds the platform backend. GUI builds override this; the
// default is the headless backend driven over the websocket bridge.
var newPlatform = func(log zerolog.Logger) Platform {
	return NewHeadlessPlatform()
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug || os.Getenv("TWEETGO_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	var (
		hashtags   string
		afterTweet string
		reply      bool
		noDetach   bool
		debug      bool
	)

	cmd := &cobra.Command{
		Use:     "tweetgo [text...]",
		Short:   "A desktop client only for tweeting",
		Long:    "tweetgo wraps the mobile tweet form in a small dedicated window.\nPositional arguments become the initial tweet text.",
		Version: version,
		Args:    cobra.ArbitraryArgs,

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := ParseAfterTweet(afterTweet)
			if err != nil {
				return err
			}
			opts := &CommandLineOptions{
				Text:       strings.Join(args, " "),
				Hashtags:   SplitHashtags(hashtags),
				AfterTweet: action,
				Reply:      reply,
				NoDetach:   noDetach,
				Debug:      debug,
			}
			return runApp(opts)
		},
	}

	cmd.Flags().StringVar(&hashtags, "hashtags", "", "comma-separated hashtags appended to composed tweets")
	cmd.Flags().StringVarP(&afterTweet, "after-tweet", "a", "", "action after a tweet is posted: 'new tweet', 'reply previous', 'close' or 'quit'")
	cmd.Flags().BoolVarP(&reply, "reply", "r", false, "open the reply form for the previous tweet")
	cmd.Flags().BoolVar(&noDetach, "no-detach", false, "stay attached to the terminal instead of detaching")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and the debug menu")

	return cmd
}

func runApp(opts *CommandLineOptions) error {
	log := newLogger(opts.Debug)
	platform := newPlatform(log)

	config, err := LoadConfig(ConfigFilePath(), log)
	if err != nil {
		platform.ShowMessageBox(MessageBoxOptions{
			Type:    "error",
			Title:   "Cannot load config",
			Message: err.Error(),
			Detail:  "Fix or remove the config file and start the app again",
			Buttons: []string{"OK"},
		})
		return err
	}

	ipc := bridge.New(log)

	// Content scripts running in an out-of-process page dial back here.
	server, err := bridge.NewServer(ipc, log)
	if err != nil {
		return fmt.Errorf("cannot start bridge server: %w", err)
	}
	defer server.Close()
	go func() {
		if err := server.Serve(); err != nil {
			log.Error().Err(err).Msg("bridge server stopped")
		}
	}()
	log.Info().Str("url", server.URL()).Msg("bridge server listening")

	lifecycle := NewLifecycle(config, opts, platform, ipc, log)
	if err := lifecycle.RunUntilQuit(); err != nil {
		platform.ShowMessageBox(MessageBoxOptions{
			Type:    "error",
			Title:   "Error",
			Message: err.Error(),
			Buttons: []string{"OK"},
		})
		return err
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
