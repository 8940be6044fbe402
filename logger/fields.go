package logger

import (
	"time"
)

// Field keys shared by every package that logs pipeline activity.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldTraceID   = "trace_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldStage      = "stage"
	FieldStageIndex = "stage_index"
	FieldDataset    = "dataset"
	FieldPattern    = "pattern"
	FieldFile       = "file"
	FieldGroup      = "group"
	FieldFrames     = "frames"
)

// Fields builds a map[string]any from alternating key-value pairs.
//
//	logger.Info("resolved", logger.Fields("stage", id, "outputs", 2))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// StageFields identifies a stage by its type identifier and chain position.
func StageFields(stageID string, index int) map[string]any {
	return map[string]any{
		FieldStage:      stageID,
		FieldStageIndex: index,
	}
}

// OutputFields describes where a dataset will be written.
func OutputFields(dataset, file, group string) map[string]any {
	return map[string]any{
		FieldDataset: dataset,
		FieldFile:    file,
		FieldGroup:   group,
	}
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[FieldError] = err.Error()
	return fields
}
