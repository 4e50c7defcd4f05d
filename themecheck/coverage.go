package themecheck

import (
	"context"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/rendertheme"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

const maxReportedTagSets = 50

// ObjectSource yields OSM objects one at a time. *osmpbf.Scanner satisfies
// it; tests feed hand-built objects through a stub.
type ObjectSource interface {
	Scan() bool
	Object() osm.Object
	Err() error
}

// NewPBFSource wraps a PBF stream in an ObjectSource, decoding with one
// worker per CPU.
func NewPBFSource(ctx context.Context, reader io.Reader) ObjectSource {
	return osmpbf.New(ctx, reader, runtime.NumCPU())
}

// Report summarises how much of a dataset a theme actually styles.
type Report struct {
	Nodes            uint64                 `json:"nodes"`
	Ways             uint64                 `json:"ways"`
	MatchedNodes     uint64                 `json:"matchedNodes"`
	MatchedWays      uint64                 `json:"matchedWays"`
	UnmatchedTagSets []string               `json:"unmatchedTagSets"`
	CacheStats       rendertheme.CacheStats `json:"cacheStats"`
}

// Runner matches every tagged node and way of a dataset against a theme,
// fanning matches out over a bounded number of goroutines. The theme's
// matching caches do the deduplication work; the run doubles as a stress test
// of their locking.
type Runner struct {
	logger               *logpkg.Logger
	theme                *rendertheme.RenderTheme
	maxConcurrentMatches uint
}

func NewRunner(logger *logpkg.Logger, theme *rendertheme.RenderTheme, maxConcurrentMatches uint) *Runner {
	if maxConcurrentMatches == 0 {
		maxConcurrentMatches = uint(runtime.NumCPU())
	}
	return &Runner{logger, theme, maxConcurrentMatches}
}

func (r *Runner) Run(source ObjectSource, zoomLevel rendertheme.ZoomLevel) (*Report, errorsx.Error) {
	report := new(Report)
	unmatched := make(map[string]struct{})
	var mu sync.Mutex

	var matchErr errorsx.Error
	sema := semaphore.NewSemaphore(r.maxConcurrentMatches)

	renderContext := &rendertheme.RenderContext{ZoomLevel: zoomLevel}

	for source.Scan() {
		switch object := source.Object().(type) {
		case *osm.Node:
			if len(object.Tags) == 0 {
				continue
			}
			poi := &rendertheme.PointOfInterest{ID: int64(object.ID), Tags: convertTags(object.Tags)}

			sema.Add()
			go func() {
				defer sema.Done()

				collector := new(Collector)
				err := r.theme.MatchNode(collector, renderContext, poi)

				mu.Lock()
				defer mu.Unlock()
				if err != nil && matchErr == nil {
					matchErr = err
					return
				}
				report.Nodes++
				if len(collector.Ops) != 0 {
					report.MatchedNodes++
				} else {
					recordUnmatched(unmatched, poi.Tags)
				}
			}()
		case *osm.Way:
			if len(object.Tags) == 0 {
				continue
			}
			way := &rendertheme.Way{ID: int64(object.ID), Tags: convertTags(object.Tags)}
			closed := wayIsClosed(object)

			sema.Add()
			go func() {
				defer sema.Done()

				collector := new(Collector)
				var err errorsx.Error
				if closed {
					err = r.theme.MatchClosedWay(collector, renderContext, way)
				} else {
					err = r.theme.MatchLinearWay(collector, renderContext, way)
				}

				mu.Lock()
				defer mu.Unlock()
				if err != nil && matchErr == nil {
					matchErr = err
					return
				}
				report.Ways++
				if len(collector.Ops) != 0 {
					report.MatchedWays++
				} else {
					recordUnmatched(unmatched, way.Tags)
				}
			}()
		}
	}

	sema.Wait()

	if err := source.Err(); err != nil {
		return nil, errorsx.Wrap(err)
	}
	if matchErr != nil {
		return nil, matchErr
	}

	for tagSet := range unmatched {
		report.UnmatchedTagSets = append(report.UnmatchedTagSets, tagSet)
	}
	sort.Strings(report.UnmatchedTagSets)
	report.CacheStats = r.theme.CacheStats()

	r.logger.Info("theme check finished: %d/%d nodes and %d/%d ways matched (%d tree walks)",
		report.MatchedNodes, report.Nodes, report.MatchedWays, report.Ways, report.CacheStats.TreeWalks)

	return report, nil
}

func recordUnmatched(unmatched map[string]struct{}, tags []rendertheme.Tag) {
	if len(unmatched) >= maxReportedTagSets {
		return
	}

	var descriptions []string
	for _, tag := range tags {
		descriptions = append(descriptions, tag.String())
	}
	sort.Strings(descriptions)

	key := ""
	for i, description := range descriptions {
		if i != 0 {
			key += ", "
		}
		key += description
	}
	unmatched[key] = struct{}{}
}

func convertTags(tags osm.Tags) []rendertheme.Tag {
	converted := make([]rendertheme.Tag, 0, len(tags))
	for _, tag := range tags {
		converted = append(converted, rendertheme.Tag{Key: tag.Key, Value: tag.Value})
	}
	return converted
}

// wayIsClosed reports whether the way's node refs form a ring.
func wayIsClosed(way *osm.Way) bool {
	if len(way.Nodes) < 3 {
		return false
	}
	return way.Nodes[0].ID == way.Nodes[len(way.Nodes)-1].ID
}
