package models

import "time"

// RunKind identifies which pipeline variant produced a run
type RunKind string

const (
	RunKindPosts    RunKind = "posts"
	RunKindArticles RunKind = "articles"
)

// RunSummary captures the outcome of one batch run. Stored for the runs command.
type RunSummary struct {
	ID                   string        `json:"id"`
	Kind                 RunKind       `json:"kind"`
	Source               string        `json:"source"` // Snapshot key or input file
	StartedAt            time.Time     `json:"started_at"`
	Duration             time.Duration `json:"duration"`
	Records              int           `json:"records"`
	Stated               int           `json:"stated"`
	Imputed              int           `json:"imputed"`
	Unlabeled            int           `json:"unlabeled"`
	UnresolvedTimestamps int           `json:"unresolved_timestamps"`
	MissingBodies        int           `json:"missing_bodies"`
	ImputationEnabled    bool          `json:"imputation_enabled"`
	ModelScore           *float64      `json:"model_score"` // Held-out accuracy, nil when no model was trained
	TrainedRows          int           `json:"trained_rows"`
	ScoredRows           int           `json:"scored_rows"`
	FittedRows           int           `json:"fitted_rows"`
	OutputPaths          []string      `json:"output_paths"`
}
