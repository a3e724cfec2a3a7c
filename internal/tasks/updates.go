package tasks

import (
	"fmt"

	"github.com/desertthunder/mtx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadList Phase = iota
	MutateList
	ExportList
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case LoadList:
		return "load_list"
	case MutateList:
		return "mutate_list"
	case ExportList:
		return "export_list"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func loadingListUpdate(step, total int, list models.ListKind, kind models.MediaKind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s %s...", step, total, kind.Label(), list.Label()),
	}
}

func mutationUpdate(res MutationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MutateList,
		Step:    1,
		Total:   1,
		Message: res.Message(),
		Data:    res,
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
