package services

import "context"

type contextKey string

const (
	conversionIDKey contextKey = "conversion_id"
	stageKey        contextKey = "stage"
	segmentKey      contextKey = "segment"
)

// WithConversionID annotates context with the identifier of one conversion attempt.
func WithConversionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, conversionIDKey, id)
}

// ConversionIDFromContext extracts the conversion identifier if present.
func ConversionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(conversionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSegment annotates context with the source-order index of a text segment.
func WithSegment(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, segmentKey, index)
}

// SegmentFromContext returns the segment index if present.
func SegmentFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(segmentKey).(int)
	return v, ok
}
