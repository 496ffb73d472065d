package watcher

import (
	"slices"
	"strings"
)

// ChangeAnalysis describes which inputs of a run changed
type ChangeAnalysis struct {
	NetworkChanged bool
	LabelsChanged  bool
	ChangedFiles   []string
}

// AnalyzeChanges folds a batch of debounced events into one analysis
func AnalyzeChanges(events ...ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{}

	for _, event := range events {
		switch event.Type {
		case ChangeTypeNetwork:
			analysis.NetworkChanged = true
		case ChangeTypeLabels:
			analysis.LabelsChanged = true
		}
		for _, path := range event.Paths {
			if !slices.Contains(analysis.ChangedFiles, path) {
				analysis.ChangedFiles = append(analysis.ChangedFiles, path)
			}
		}
	}

	return analysis
}

// NeedRerun reports whether any input changed
func (a *ChangeAnalysis) NeedRerun() bool {
	return a.NetworkChanged || a.LabelsChanged
}

// Reason describes the change for logs and run status
func (a *ChangeAnalysis) Reason() string {
	var parts []string
	if a.NetworkChanged {
		parts = append(parts, "network")
	}
	if a.LabelsChanged {
		parts = append(parts, "labels")
	}
	if len(parts) == 0 {
		return "no change"
	}
	return strings.Join(parts, " and ") + " changed"
}
