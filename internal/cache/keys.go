package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// Namespace prefixes every cache key so the backend can share a redis
// database with other tools.
const Namespace = "habitflow"

// Endpoint names for the analytics dashboards. Each endpoint owns its
// own key space and TTL.
const (
	EndpointOverview     = "overview"
	EndpointBreakdown    = "breakdown"
	EndpointHeatmap      = "heatmap"
	EndpointHabitStats   = "habit_stats"
	EndpointLeaderboard  = "leaderboard"
	EndpointInsights     = "insights"
	EndpointCategories   = "categories"
	EndpointComparison   = "comparison"
	EndpointProductivity = "productivity"
	EndpointPerformance  = "performance"
	EndpointCorrelations = "correlations"
	EndpointRisk         = "risk"
)

// Params enumerates every parameter an analytics endpoint can be keyed
// on. Nil fields are dropped from the key; the remaining pairs are
// serialized in a fixed lexicographic key order, so two logically
// identical requests always map to the same entry and two different
// parameterizations never collide.
type Params struct {
	EndDate   *string
	HabitID   *string
	Limit     *int
	Page      *int
	Period    *string
	StartDate *string
}

// canonical renders the params as a compact JSON object with keys in
// lexicographic order, or "" when every field is nil.
func (p *Params) canonical() string {
	if p == nil {
		return ""
	}

	var parts []string
	addStr := func(key string, value *string) {
		if value != nil {
			parts = append(parts, fmt.Sprintf("%q:%s", key, strconv.Quote(*value)))
		}
	}
	addInt := func(key string, value *int) {
		if value != nil {
			parts = append(parts, fmt.Sprintf("%q:%d", key, *value))
		}
	}

	// Append order is the lexicographic order of the key names
	addStr("end", p.EndDate)
	addStr("habit", p.HabitID)
	addInt("limit", p.Limit)
	addInt("page", p.Page)
	addStr("period", p.Period)
	addStr("start", p.StartDate)

	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// BuildKey constructs the deterministic cache key for one analytics
// response: namespace : userID : "analytics" : endpoint [ : params ].
func BuildKey(userID, endpoint string, params *Params) string {
	key := fmt.Sprintf("%s:%s:analytics:%s", Namespace, userID, endpoint)
	if canonical := params.canonical(); canonical != "" {
		key += ":" + canonical
	}
	return key
}

// UserPrefix is the prefix shared by every analytics entry of one user;
// invalidation deletes everything under it.
func UserPrefix(userID string) string {
	return fmt.Sprintf("%s:%s:analytics:", Namespace, userID)
}
