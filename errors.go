/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

func newLogger(cfg *Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: logDate,
	})

	l.SetLevel(logrus.WarnLevel)
	if cfg.verbose {
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}

// logger returns the process logger, building it on first use.
func (c *Config) logger() *logrus.Logger {
	if c.log == nil {
		c.log = newLogger(c)
	}
	return c.log
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	cfg.logger().Infof(format, args...)
}

// drainErrors logs response write failures reported by handlers until errs
// is closed.
func drainErrors(cfg *Config, errs <-chan error) {
	for err := range errs {
		cfg.logger().WithError(err).Warn("SERVE: Failed to write response")
	}
}

func newPage(cfg *Config, title, href, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(`<link rel="stylesheet" href="` + cfg.prefix + `/assets/story/app.css">`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body class=\"page\"><a class=\"page-link\" href=\"%s\">%s</a></body></html>", href, body))

	return htmlBody.String()
}
