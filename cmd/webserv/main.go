/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command webserv is the CLI entry point: it parses the block
// configuration, wires the router, handler and CGI gateway, and runs the
// event loop until interrupted.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/eventloop"
	"github.com/nabbar/webserv/internal/cgi"
	"github.com/nabbar/webserv/internal/handler"
	"github.com/nabbar/webserv/internal/metrics"
	liblog "github.com/nabbar/webserv/logger"
	"github.com/nabbar/webserv/router"
)

const defaultConfigPath = "config/default.conf"

var (
	flagConfigPath  string
	flagWatch       bool
	flagLogLevel    string
	flagMetricsBind string
)

func main() {
	root := &cobra.Command{
		Use:   "webserv",
		Short: "nginx-style HTTP/1.1 server with a classic CGI gateway",
		RunE:  run,
	}

	root.Flags().StringVarP(&flagConfigPath, "config", "c", defaultConfigPath, "path to the block configuration file")
	root.Flags().BoolVarP(&flagWatch, "watch", "w", false, "reload the configuration when the file changes on disk")
	root.Flags().StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, error or fatal")
	root.Flags().StringVar(&flagMetricsBind, "metrics-bind", "", "address to serve Prometheus metrics on (empty disables it)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyEnvOverrides lets any flag left at its command-line default be set
// instead via a WEBSERV_-prefixed environment variable (WEBSERV_CONFIG,
// WEBSERV_LOG_LEVEL, ...), read through viper. An explicit CLI flag
// always wins over the environment.
func applyEnvOverrides(cmd *cobra.Command) {
	v := viper.New()
	v.SetEnvPrefix("webserv")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("watch", flags.Lookup("watch"))
	_ = v.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = v.BindPFlag("metrics-bind", flags.Lookup("metrics-bind"))

	if !flags.Changed("config") {
		flagConfigPath = v.GetString("config")
	}
	if !flags.Changed("watch") {
		flagWatch = v.GetBool("watch")
	}
	if !flags.Changed("log-level") {
		flagLogLevel = v.GetString("log-level")
	}
	if !flags.Changed("metrics-bind") {
		flagMetricsBind = v.GetString("metrics-bind")
	}
}

func run(cmd *cobra.Command, args []string) error {
	applyEnvOverrides(cmd)
	if len(args) > 0 && !cmd.Flags().Changed("config") {
		flagConfigPath = args[0]
	}

	log := liblog.New(parseLevel(flagLogLevel))

	cfg, err := config.ParseFile(flagConfigPath)
	if err != nil {
		log.Errorf("config: %v", err)
		return err
	}
	log.Infof("config: loaded %d server block(s) from %s", len(cfg.Servers), flagConfigPath)

	reg := metrics.New()
	if flagMetricsBind != "" {
		go func() {
			if serr := http.ListenAndServe(flagMetricsBind, reg.Handler()); serr != nil {
				log.Errorf("metrics: %v", serr)
			}
		}()
		log.Infof("metrics: serving on %s", flagMetricsBind)
	}

	r := router.New(cfg)
	gw := cgi.New(log)
	gw.Metrics = reg
	h := handler.New(gw, log)
	h.Metrics = reg

	loop := eventloop.New(cfg, r, h, log)
	loop.SetMetrics(reg)

	if flagWatch {
		w, werr := config.NewWatcher(flagConfigPath, log, func(next *config.HttpContext) {
			log.Infof("config: reloaded %s (%d server blocks)", flagConfigPath, len(next.Servers))
		})
		if werr != nil {
			log.Errorf("config: watch: %v", werr)
		} else {
			defer w.Close()
		}
	}

	if err = loop.Bind(); err != nil {
		log.Errorf("eventloop: %v", err)
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Infof("shutdown: signal received")
		loop.Stop()
	}()

	log.Infof("webserv: ready")
	if err = loop.Run(); err != nil {
		log.Errorf("eventloop: %v", err)
		return err
	}
	return nil
}

func parseLevel(name string) liblog.Level {
	switch name {
	case "debug":
		return liblog.DebugLevel
	case "warn":
		return liblog.WarnLevel
	case "error":
		return liblog.ErrorLevel
	case "fatal":
		return liblog.FatalLevel
	default:
		return liblog.InfoLevel
	}
}
