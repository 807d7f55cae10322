// Package drift compares an outline against a stored snapshot.
// It reports removed and added nodes, growth, deeper nesting and hub shifts.
package drift

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/arbor/pkg/analysis"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Severity represents the severity level of a drift alert
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertType categorizes different kinds of drift alerts
type AlertType string

const (
	AlertControlsRemoved AlertType = "controls_removed"
	AlertRemovedNodes    AlertType = "removed_nodes"
	AlertAddedNodes      AlertType = "added_nodes"
	AlertNodeCountChange AlertType = "node_count_change"
	AlertDepthIncrease   AlertType = "depth_increase"
	AlertHubChange       AlertType = "hub_change"
)

// Alert represents a single drift detection alert
type Alert struct {
	Type        AlertType `json:"type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	BaselineVal float64   `json:"baseline_value,omitempty"`
	CurrentVal  float64   `json:"current_value,omitempty"`
	Delta       float64   `json:"delta,omitempty"`
	Details     []string  `json:"details,omitempty"`
	DetectedAt  time.Time `json:"detected_at,omitempty"`
}

// Result contains the complete drift analysis
type Result struct {
	// HasDrift is true if any alerts were generated
	HasDrift bool `json:"has_drift"`

	// Alerts lists all detected drift issues
	Alerts []Alert `json:"alerts"`

	// Summary statistics
	CriticalCount int `json:"critical_count"`
	WarningCount  int `json:"warning_count"`
	InfoCount     int `json:"info_count"`
}

// Config holds the thresholds for drift alerts.
type Config struct {
	// NodeGrowthInfoPct is the node count change, in percent, that raises an info alert.
	NodeGrowthInfoPct float64

	// DepthIncreaseThreshold is how many levels deeper the outline may grow
	// before a warning.
	DepthIncreaseThreshold int

	// HubChangeWarningPct is the betweenness change, in percent, reported for
	// a hub present in both trees.
	HubChangeWarningPct float64

	// MaxDetails caps the paths listed per alert.
	MaxDetails int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() *Config {
	return &Config{
		NodeGrowthInfoPct:      10,
		DepthIncreaseThreshold: 1,
		HubChangeWarningPct:    50,
		MaxDetails:             10,
	}
}

// measurement is what a tree contributes to a comparison.
type measurement struct {
	stats analysis.Stats
	kinds map[string]model.Kind // by name path
}

func measure(t *tree.Tree) measurement {
	m := measurement{
		stats: analysis.Compute(t),
		kinds: make(map[string]model.Kind, t.Len()),
	}
	for n := range t.All() {
		kind := analysis.KindOther
		if w, ok := model.AsWidget(n.Payload()); ok {
			kind = w.Kind()
		}
		m.kinds[n.NamePath()] = kind
	}
	return m
}

// Calculator performs drift detection
type Calculator struct {
	config   *Config
	baseline measurement
	current  measurement
}

// NewCalculator creates a drift calculator comparing current against baseline.
func NewCalculator(baseline, current *tree.Tree, cfg *Config) *Calculator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Calculator{
		config:   cfg,
		baseline: measure(baseline),
		current:  measure(current),
	}
}

// Calculate performs drift detection and returns results
func (c *Calculator) Calculate() *Result {
	result := &Result{
		Alerts: make([]Alert, 0),
	}

	c.checkPaths(result)
	c.checkSize(result)
	c.checkDepth(result)
	c.checkHubs(result)

	for _, alert := range result.Alerts {
		switch alert.Severity {
		case SeverityCritical:
			result.CriticalCount++
		case SeverityWarning:
			result.WarningCount++
		case SeverityInfo:
			result.InfoCount++
		}
	}
	result.HasDrift = len(result.Alerts) > 0

	return result
}

// checkPaths compares the node paths of both trees. Losing a control is
// critical since it takes an action away from the menu.
func (c *Calculator) checkPaths(result *Result) {
	var controls, removed, added []string
	for path, kind := range c.baseline.kinds {
		if _, ok := c.current.kinds[path]; ok {
			continue
		}
		if kind == model.KindControl {
			controls = append(controls, path)
		} else {
			removed = append(removed, path)
		}
	}
	for path := range c.current.kinds {
		if _, ok := c.baseline.kinds[path]; !ok {
			added = append(added, path)
		}
	}

	if len(controls) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:       AlertControlsRemoved,
			Severity:   SeverityCritical,
			Message:    fmt.Sprintf("%d control(s) removed", len(controls)),
			Delta:      -float64(len(controls)),
			Details:    c.details(controls),
			DetectedAt: time.Now().UTC(),
		})
	}
	if len(removed) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:       AlertRemovedNodes,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("%d node(s) removed", len(removed)),
			Delta:      -float64(len(removed)),
			Details:    c.details(removed),
			DetectedAt: time.Now().UTC(),
		})
	}
	if len(added) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:       AlertAddedNodes,
			Severity:   SeverityInfo,
			Message:    fmt.Sprintf("%d node(s) added", len(added)),
			Delta:      float64(len(added)),
			Details:    c.details(added),
			DetectedAt: time.Now().UTC(),
		})
	}
}

// checkSize checks for significant node count changes
func (c *Calculator) checkSize(result *Result) {
	blNodes := c.baseline.stats.Nodes
	curNodes := c.current.stats.Nodes
	delta := curNodes - blNodes

	if blNodes == 0 {
		return // No baseline to compare
	}
	pct := float64(delta) / float64(blNodes) * 100
	if math.Abs(pct) >= c.config.NodeGrowthInfoPct {
		result.Alerts = append(result.Alerts, Alert{
			Type:        AlertNodeCountChange,
			Severity:    SeverityInfo,
			Message:     fmt.Sprintf("Node count changed by %+d (%.1f%%)", delta, pct),
			BaselineVal: float64(blNodes),
			CurrentVal:  float64(curNodes),
			Delta:       float64(delta),
			DetectedAt:  time.Now().UTC(),
		})
	}
}

// checkDepth warns when the outline nests deeper than before.
func (c *Calculator) checkDepth(result *Result) {
	blDepth := c.baseline.stats.MaxDepth
	curDepth := c.current.stats.MaxDepth
	delta := curDepth - blDepth

	if delta >= c.config.DepthIncreaseThreshold && delta > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:        AlertDepthIncrease,
			Severity:    SeverityWarning,
			Message:     fmt.Sprintf("Maximum depth increased by %d", delta),
			BaselineVal: float64(blDepth),
			CurrentVal:  float64(curDepth),
			Delta:       float64(delta),
			DetectedAt:  time.Now().UTC(),
		})
	}
}

// checkHubs detects changes among the top betweenness nodes
func (c *Calculator) checkHubs(result *Result) {
	blHubs := make(map[string]float64)
	for _, h := range c.baseline.stats.Hubs {
		blHubs[h.Path] = h.Score
	}
	curHubs := make(map[string]float64)
	for _, h := range c.current.stats.Hubs {
		curHubs[h.Path] = h.Score
	}

	var changes []string
	for path, blVal := range blHubs {
		curVal, exists := curHubs[path]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s dropped from hubs", path))
			continue
		}
		pct := (curVal - blVal) / blVal * 100
		if math.Abs(pct) >= c.config.HubChangeWarningPct {
			changes = append(changes, fmt.Sprintf("%s: %+.1f%% betweenness", path, pct))
		}
	}
	for path := range curHubs {
		if _, exists := blHubs[path]; !exists {
			changes = append(changes, fmt.Sprintf("%s became a hub", path))
		}
	}

	if len(changes) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:       AlertHubChange,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("%d hub change(s) detected", len(changes)),
			Details:    c.details(changes),
			DetectedAt: time.Now().UTC(),
		})
	}
}

// details sorts lines and caps them at MaxDetails.
func (c *Calculator) details(lines []string) []string {
	sort.Strings(lines)
	if limit := c.config.MaxDetails; limit > 0 && len(lines) > limit {
		more := len(lines) - limit
		lines = append(lines[:limit:limit], fmt.Sprintf("... and %d more", more))
	}
	return lines
}

// Summary returns a human-readable summary of drift results
func (r *Result) Summary() string {
	if !r.HasDrift {
		return "No drift detected. The outline matches the snapshot.\n"
	}

	var sb strings.Builder
	sb.WriteString("Drift Analysis Summary\n")
	sb.WriteString("======================\n\n")

	if r.CriticalCount > 0 {
		sb.WriteString(fmt.Sprintf("🔴 CRITICAL: %d change(s)\n", r.CriticalCount))
	}
	if r.WarningCount > 0 {
		sb.WriteString(fmt.Sprintf("🟡 WARNING: %d change(s)\n", r.WarningCount))
	}
	if r.InfoCount > 0 {
		sb.WriteString(fmt.Sprintf("🔵 INFO: %d change(s)\n", r.InfoCount))
	}

	sb.WriteString("\nDetails:\n")
	for _, alert := range r.Alerts {
		icon := "ℹ️"
		switch alert.Severity {
		case SeverityCritical:
			icon = "🔴"
		case SeverityWarning:
			icon = "🟡"
		}
		sb.WriteString(fmt.Sprintf("  %s [%s] %s\n", icon, alert.Type, alert.Message))
		for _, detail := range alert.Details {
			sb.WriteString(fmt.Sprintf("      - %s\n", detail))
		}
	}
	sb.WriteString("\n")

	return sb.String()
}

// HasCritical returns true if there are any critical alerts
func (r *Result) HasCritical() bool {
	return r.CriticalCount > 0
}

// HasWarnings returns true if there are any warning or critical alerts
func (r *Result) HasWarnings() bool {
	return r.CriticalCount > 0 || r.WarningCount > 0
}

// ExitCode returns suggested exit code for CI use
// 0 = no drift, 1 = critical, 2 = warning, 0 = info only
func (r *Result) ExitCode() int {
	if r.CriticalCount > 0 {
		return 1
	}
	if r.WarningCount > 0 {
		return 2
	}
	return 0
}
