// Command extrude runs the footprint pipeline once and writes the result as
// JSON. Progress is logged to stderr while the run is in flight.
//
// Usage:
//
//	go run ./cmd/extrude -lat 48.137 -lon 11.575 -radius 300 > solids.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/couchcryptid/footprint-extrusion/internal/adapter/wfs"
	"github.com/couchcryptid/footprint-extrusion/internal/config"
	"github.com/couchcryptid/footprint-extrusion/internal/geometry"
	"github.com/couchcryptid/footprint-extrusion/internal/observability"
	"github.com/couchcryptid/footprint-extrusion/internal/pipeline"
)

// optionalFloat is a flag that remembers whether it was set.
type optionalFloat struct {
	v *float64
}

func (f *optionalFloat) String() string {
	if f.v == nil {
		return ""
	}
	return strconv.FormatFloat(*f.v, 'f', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.v = &v
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("extrude", flag.ContinueOnError)
	var lat, lon, radius optionalFloat
	fs.Var(&lat, "lat", "latitude of the centre point in degrees")
	fs.Var(&lon, "lon", "longitude of the centre point in degrees")
	fs.Var(&radius, "radius", "radius in metres (default from DEFAULT_RADIUS)")
	enabled := fs.Bool("run", true, "set to false to return without downloading")
	out := fs.String("out", "", "write the result to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	p := pipeline.New(wfs.NewClient(cfg, metrics), geometry.NewKernel(), nil, logger, metrics, pipeline.Options{
		DefaultRadius:  cfg.DefaultRadius,
		MaxAbsLatitude: cfg.MaxAbsLatitude,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := p.Run(ctx, pipeline.Request{
		Latitude:  lat.v,
		Longitude: lon.v,
		Radius:    radius.v,
		Run:       *enabled,
	})

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if res.Stage != pipeline.StageDone && *enabled {
		return fmt.Errorf("run stopped at %s", res.Stage)
	}
	return nil
}
