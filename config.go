/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/storybox/catalog"
	"github.com/Seednode/storybox/election"
	"github.com/Seednode/storybox/story"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const maxPromptWords = 10

type Config struct {
	ballot         string
	bind           string
	catalogPath    string
	nameAPI        string
	port           int
	prefix         string
	profile        bool
	promptWords    int
	recheckOnLeave bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	log *logrus.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if _, ok := election.ParseBallotPolicy(c.ballot); !ok {
		return fmt.Errorf("invalid ballot policy (must be single or approval): %q", c.ballot)
	}
	if c.promptWords < 0 || c.promptWords > maxPromptWords {
		return fmt.Errorf("invalid prompt word count (must be between 0-%d inclusive): %d", maxPromptWords, c.promptWords)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// sessionOptions turns the configuration into the options every story
// session is built with, loading the catalog from disk when one is given.
func (c *Config) sessionOptions() ([]story.Option, error) {
	policy, ok := election.ParseBallotPolicy(c.ballot)
	if !ok {
		return nil, fmt.Errorf("invalid ballot policy: %q", c.ballot)
	}

	var cat catalog.Catalog = catalog.Default()
	if c.catalogPath != "" {
		loaded, err := catalog.Load(c.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		cat = loaded
	}

	return []story.Option{
		story.WithCatalog(cat),
		story.WithLogger(c.logger()),
		story.WithPromptWords(c.promptWords),
		story.WithEngineOptions(
			election.WithBallotPolicy(policy),
			election.WithDepartureRecheck(c.recheckOnLeave),
		),
	}, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("STORYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "storybox",
		Short:         "A storytelling party game where the table votes, unanimously, on where the story goes.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.ballot, "ballot", "single", "ballot policy, single or approval (env: STORYBOX_BALLOT)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: STORYBOX_BIND)")
	fs.StringVar(&cfg.catalogPath, "catalog", "", "path to a json or yaml story catalog, instead of the built-in one (env: STORYBOX_CATALOG)")
	fs.StringVar(&cfg.nameAPI, "name-api", "", "url of a random name service used to suggest player names (env: STORYBOX_NAME_API)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: STORYBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: STORYBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: STORYBOX_PROFILE)")
	fs.IntVar(&cfg.promptWords, "prompt-words", 3, "number of prompt words given to the editor (env: STORYBOX_PROMPT_WORDS)")
	fs.BoolVar(&cfg.recheckOnLeave, "recheck-on-leave", true, "decide open votes when a departing player leaves the rest unanimous (env: STORYBOX_RECHECK_ON_LEAVE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: STORYBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: STORYBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: STORYBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: STORYBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: STORYBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("storybox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
