package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/agency-report/pkg/pagination"
	"github.com/Sternrassler/agency-report/pkg/report"
)

// applyQuery overrides cfg with the request's query parameters.
func applyQuery(cfg report.Config, q url.Values) (report.Config, error) {
	if raw := q.Get("regions"); raw != "" {
		regions, err := parseList("regions", raw)
		if err != nil {
			return cfg, err
		}
		cfg.Regions = regions
	}

	if raw := q.Get("service_groups"); raw != "" {
		groups, err := parseList("service_groups", raw)
		if err != nil {
			return cfg, err
		}
		cfg.ServiceGroups = groups
	}

	if raw := q.Get("skip"); raw != "" {
		bound, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return cfg, fmt.Errorf("skip: %q is not an integer", raw)
		}
		if bound < 0 {
			return cfg, fmt.Errorf("skip: %w (got %d)", report.ErrInvalidPageBound, bound)
		}
		cfg.PageBound = bound
	}

	if raw := q.Get("on_page_error"); raw != "" {
		policy, err := report.ParseOnPageError(raw)
		if err != nil {
			return cfg, fmt.Errorf("on_page_error: %w", err)
		}
		cfg.OnPageError = policy
	}

	if raw := q.Get("strategy"); raw != "" {
		strategy, err := pagination.ParseStrategy(raw)
		if err != nil {
			return cfg, fmt.Errorf("strategy: %w", err)
		}
		cfg.Fetch.Strategy = strategy
	}

	return cfg, nil
}

// parseList decodes a JSON string array.
func parseList(name, raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array of strings: %w", name, err)
	}
	return list, nil
}
