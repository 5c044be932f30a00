/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/julienschmidt/httprouter"
)

//go:embed favicons/*
var favicons embed.FS

func getFavicon(cfg *Config) string {
	return `<link rel="icon" type="image/svg+xml" href="` + cfg.prefix + `/favicons/favicon.svg">
	<link rel="manifest" href="` + cfg.prefix + `/favicons/site.webmanifest" crossorigin="use-credentials">
	<meta name="theme-color" content="#2b2d42">`
}

func serveFavicons(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := "favicons/" + strings.TrimPrefix(path.Clean("/"+p.ByName("favicon")), "/")

		data, err := favicons.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		if ctype := mime.TypeByExtension(path.Ext(fname)); ctype != "" {
			w.Header().Set("Content-Type", ctype)
		}
		if path.Ext(fname) == ".webmanifest" {
			w.Header().Set("Content-Type", "application/manifest+json")
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}
