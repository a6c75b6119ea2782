package history

import "time"

const SchemaVersion = 1

// Run is one recorded analysis pass over the scan paths.
type Run struct {
	ID              string         `json:"id"`
	ProjectKey      string         `json:"project_key"`
	SchemaVersion   int            `json:"schema_version"`
	Timestamp       time.Time      `json:"timestamp"`
	Duration        time.Duration  `json:"duration"`
	Backend         string         `json:"backend"`
	FileCount       int            `json:"file_count"`
	ModuleCount     int            `json:"module_count"`
	BindingCount    int            `json:"binding_count"`
	ParseErrorCount int            `json:"parse_error_count"`
	FindingCount    int            `json:"finding_count"`
	RuleCounts      map[string]int `json:"rule_counts"`
}

type TrendPoint struct {
	RunID         string         `json:"run_id"`
	Timestamp     time.Time      `json:"timestamp"`
	FileCount     int            `json:"file_count"`
	ModuleCount   int            `json:"module_count"`
	FindingCount  int            `json:"finding_count"`
	RuleCounts    map[string]int `json:"rule_counts"`
	DeltaFiles    int            `json:"delta_files"`
	DeltaModules  int            `json:"delta_modules"`
	DeltaFindings int            `json:"delta_findings"`
	RuleDeltas    map[string]int `json:"rule_deltas,omitempty"`
	AvgFindings   float64        `json:"avg_findings"`
	WindowHours   float64        `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	ProjectKey    string       `json:"project_key"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
