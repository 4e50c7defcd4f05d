package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/rendertheme"
	"github.com/jamesrr39/rendertheme/builtintheme"
	"github.com/jamesrr39/rendertheme/themecheck"
	"github.com/jamesrr39/rendertheme/webservices"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const DEFAULT_PORT = 9002

var logger *logpkg.Logger

func main() {
	verbose := kingpin.Flag("v", "verbose logging").Bool()

	logLevel := logpkg.LogLevelInfo
	if *verbose {
		logLevel = logpkg.LogLevelDebug
	}
	logger = logpkg.NewLogger(os.Stderr, logLevel)

	setupInspect()
	setupCheck()
	setupServe()
	setupBench()

	kingpin.Parse()
}

func setupInspect() {
	cmd := kingpin.Command("inspect", "print the rule tree of the builtin theme")
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			theme, err := builtintheme.New()
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer theme.Destroy()

			description, err := themecheck.DescribeRules(theme)
			if err != nil {
				return errorsx.Wrap(err)
			}

			fmt.Print(description)
			fmt.Printf("levels: %d\n", theme.Levels())

			return nil
		}

		err := run()
		if err != nil {
			log.Fatalf("failed to inspect theme: %q\n%s\n", err.Error(), err.Stack())
		}
		return nil
	})
}

func setupCheck() {
	cmd := kingpin.Command("check", "report how much of an OSM PBF extract the theme styles")
	pbfFilePath := cmd.Arg("pbf-file", "OSM PBF file to read features from").Required().String()
	zoom := cmd.Flag("zoom", "zoom level to match at").Default("14").Uint()
	maxConcurrency := cmd.Flag("max-concurrency", "maximum concurrent match operations (0: one per CPU)").Uint()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			theme, err := builtintheme.New()
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer theme.Destroy()

			file, openErr := os.Open(*pbfFilePath)
			if openErr != nil {
				return errorsx.Wrap(openErr)
			}
			defer file.Close()

			source := themecheck.NewPBFSource(context.Background(), file)
			runner := themecheck.NewRunner(logger, theme, *maxConcurrency)

			report, err := runner.Run(source, rendertheme.ZoomLevel(*zoom))
			if err != nil {
				return errorsx.Wrap(err)
			}

			fmt.Printf("nodes matched: %d/%d\n", report.MatchedNodes, report.Nodes)
			fmt.Printf("ways matched:  %d/%d\n", report.MatchedWays, report.Ways)
			fmt.Printf("tree walks:    %d (way cache: %d entries, poi cache: %d entries)\n",
				report.CacheStats.TreeWalks, report.CacheStats.WayEntries, report.CacheStats.PoiEntries)
			for _, tagSet := range report.UnmatchedTagSets {
				fmt.Printf("unmatched: %s\n", tagSet)
			}

			return nil
		}

		err := run()
		if err != nil {
			log.Fatalf("theme check failed: %q\n%s\n", err.Error(), err.Stack())
		}
		return nil
	})
}

func setupServe() {
	cmd := kingpin.Command("serve", "serve the theme inspector webservice")
	addr := cmd.Flag("addr", "address to listen on").Default(fmt.Sprintf("localhost:%d", DEFAULT_PORT)).String()
	tracerFilePath := cmd.Flag("tracer-file", "write request traces to this file").String()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			theme, err := builtintheme.New()
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer theme.Destroy()

			themeService := webservices.NewThemeService(logger, theme)

			var handler http.Handler = themeService
			if *tracerFilePath != "" {
				tracerFile, createErr := os.Create(*tracerFilePath)
				if createErr != nil {
					return errorsx.Wrap(createErr)
				}
				defer tracerFile.Close()

				tracer := tracing.NewTracer(tracerFile)
				handler = tracing.Middleware(tracer)(themeService)
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = handler

			logger.Info("about to start serving on %q", *addr)

			serveErr := server.ListenAndServe()
			if serveErr != nil {
				return errorsx.Wrap(serveErr)
			}
			return nil
		}

		err := run()
		if err != nil {
			log.Fatalf("failed to serve: %q\n%s\n", err.Error(), err.Stack())
		}
		return nil
	})
}

func setupBench() {
	cmd := kingpin.Command("bench", "measure match throughput against the builtin theme")
	iterations := cmd.Flag("iterations", "number of match calls").Default("1000000").Int()
	zoom := cmd.Flag("zoom", "zoom level to match at").Default("14").Uint()
	shouldProfile := cmd.Flag("profile", "write a CPU profile").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			theme, err := builtintheme.New()
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer theme.Destroy()

			if *shouldProfile {
				defer profile.Start(profile.ProfilePath(".")).Stop()
			}

			ways := benchWays()
			renderContext := &rendertheme.RenderContext{ZoomLevel: rendertheme.ZoomLevel(*zoom)}
			collector := new(themecheck.Collector)

			start := time.Now()
			for i := 0; i < *iterations; i++ {
				way := ways[i%len(ways)]
				err := theme.MatchLinearWay(collector, renderContext, way)
				if err != nil {
					return errorsx.Wrap(err)
				}
				collector.Ops = collector.Ops[:0]
			}
			elapsed := time.Since(start)

			stats := theme.CacheStats()
			logger.Info("%d matches in %s (%.0f ns/match), %d tree walks",
				*iterations, elapsed, float64(elapsed.Nanoseconds())/float64(*iterations), stats.TreeWalks)

			return nil
		}

		err := run()
		if err != nil {
			log.Fatalf("bench failed: %q\n%s\n", err.Error(), err.Stack())
		}
		return nil
	})
}

// benchWays synthesizes a fixed pool of plausibly-tagged ways so the bench
// exercises both cache hits and a spread of distinct cache keys.
func benchWays() []*rendertheme.Way {
	rnd := rand.New(rand.NewSource(42))
	classes := []string{"motorway", "trunk", "primary", "secondary", "tertiary", "residential", "footway", "cycleway"}

	var ways []*rendertheme.Way
	for i := 0; i < 512; i++ {
		class := classes[rnd.Intn(len(classes))]
		tags := []rendertheme.Tag{{Key: "highway", Value: class}}
		if rnd.Intn(2) == 0 {
			tags = append(tags, rendertheme.Tag{Key: "name", Value: fmt.Sprintf("Street %d", rnd.Intn(64))})
		}
		ways = append(ways, &rendertheme.Way{ID: int64(i), Tags: tags})
	}
	return ways
}
