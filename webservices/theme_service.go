package webservices

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/rendertheme"
	"github.com/jamesrr39/rendertheme/themecheck"
)

// ThemeService exposes a loaded theme for inspection: overall info, the rule
// tree, and an ad-hoc match endpoint for trying tag sets against it.
type ThemeService struct {
	logger *logpkg.Logger
	theme  *rendertheme.RenderTheme
	chi.Router
}

func NewThemeService(logger *logpkg.Logger, theme *rendertheme.RenderTheme) *ThemeService {
	ws := &ThemeService{logger, theme, chi.NewRouter()}
	ws.Get("/", ws.handleGetInfo)
	ws.Get("/rules", ws.handleGetRules)
	ws.Get("/match", ws.handleMatch)

	return ws
}

type themeInfoType struct {
	Levels               int                    `json:"levels"`
	RuleCount            int                    `json:"ruleCount"`
	HasBackgroundOutside bool                   `json:"hasBackgroundOutside"`
	CacheStats           rendertheme.CacheStats `json:"cacheStats"`
}

func (ws *ThemeService) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	ruleCount := 0
	err := ws.theme.TraverseRules(func(rule *rendertheme.Rule, depth int) {
		ruleCount++
	})
	if err != nil {
		errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, themeInfoType{
		Levels:               ws.theme.Levels(),
		RuleCount:            ruleCount,
		HasBackgroundOutside: ws.theme.HasMapBackgroundOutside(),
		CacheStats:           ws.theme.CacheStats(),
	})
}

type ruleType struct {
	Kind         string      `json:"kind"`
	Element      string      `json:"element"`
	Closed       string      `json:"closed"`
	ZoomMin      int         `json:"zoomMin"`
	ZoomMax      int         `json:"zoomMax"`
	Keys         []string    `json:"keys"`
	Values       []string    `json:"values"`
	Instructions []string    `json:"instructions,omitempty"`
	SubRules     []*ruleType `json:"subRules,omitempty"`
}

func (ws *ThemeService) handleGetRules(w http.ResponseWriter, r *http.Request) {
	var roots []*ruleType
	var stack []*ruleType

	err := ws.theme.TraverseRules(func(rule *rendertheme.Rule, depth int) {
		var instructions []string
		for _, instruction := range rule.RenderInstructions() {
			instructions = append(instructions, themecheck.InstructionName(instruction))
		}

		node := &ruleType{
			Kind:         rule.Kind().String(),
			Element:      rule.Element().String(),
			Closed:       rule.Closed().String(),
			ZoomMin:      int(rule.ZoomMin()),
			ZoomMax:      int(rule.ZoomMax()),
			Keys:         rule.Keys(),
			Values:       rule.Values(),
			Instructions: instructions,
		}

		if depth == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[depth-1]
			parent.SubRules = append(parent.SubRules, node)
		}
		stack = append(stack[:depth], node)
	})
	if err != nil {
		errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, roots)
}

type matchResultType struct {
	Ops []string `json:"ops"`
}

// handleMatch runs one feature through the theme. Query parameters:
// element=node|way, closed=yes|no (ways only), zoom=<level>,
// tags=key=value,key=value,...
func (ws *ThemeService) handleMatch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	zoom, err := strconv.ParseUint(query.Get("zoom"), 10, 8)
	if err != nil {
		errorsx.HTTPError(w, ws.logger, errorsx.Wrap(err, "param", "zoom"), http.StatusBadRequest)
		return
	}
	renderContext := &rendertheme.RenderContext{ZoomLevel: rendertheme.ZoomLevel(zoom)}

	tags, tagsErr := parseTagsParam(query.Get("tags"))
	if tagsErr != nil {
		errorsx.HTTPError(w, ws.logger, tagsErr, http.StatusBadRequest)
		return
	}

	collector := new(themecheck.Collector)

	var matchErr errorsx.Error
	switch query.Get("element") {
	case "node":
		matchErr = ws.theme.MatchNode(collector, renderContext, &rendertheme.PointOfInterest{Tags: tags})
	case "way", "":
		way := &rendertheme.Way{Tags: tags}
		if query.Get("closed") == "yes" {
			matchErr = ws.theme.MatchClosedWay(collector, renderContext, way)
		} else {
			matchErr = ws.theme.MatchLinearWay(collector, renderContext, way)
		}
	default:
		errorsx.HTTPError(w, ws.logger, errorsx.Errorf("unknown element %q", query.Get("element")), http.StatusBadRequest)
		return
	}
	if matchErr != nil {
		errorsx.HTTPError(w, ws.logger, matchErr, http.StatusInternalServerError)
		return
	}

	ops := collector.Ops
	if ops == nil {
		ops = []string{}
	}
	render.JSON(w, r, matchResultType{Ops: ops})
}

func parseTagsParam(param string) ([]rendertheme.Tag, errorsx.Error) {
	if param == "" {
		return nil, nil
	}

	var tags []rendertheme.Tag
	for _, fragment := range strings.Split(param, ",") {
		keyValue := strings.SplitN(fragment, "=", 2)
		if len(keyValue) != 2 || keyValue[0] == "" {
			return nil, errorsx.Errorf("malformed tag %q, expected key=value", fragment)
		}
		tags = append(tags, rendertheme.Tag{Key: keyValue[0], Value: keyValue[1]})
	}
	return tags, nil
}
