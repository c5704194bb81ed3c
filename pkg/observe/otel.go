package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for effect spans.
const defaultTracerName = "rebind"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "rebind").
	TracerName string

	// Filter determines which events become spans.
	// Return true to trace the event, false to skip.
	// If nil, fire and panic events are traced.
	Filter func(event Event) bool

	// AttributeExtractor extracts custom attributes from an event.
	AttributeExtractor func(event Event) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(event Event) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(event Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OTelObserver records fired evaluations as OpenTelemetry spans.
//
// The tracer comes from the global tracer provider. Configure it in
// main() before coordinating effects:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
type OTelObserver struct {
	config OTelConfig
}

// NewOTelObserver creates an OpenTelemetry observer.
func NewOTelObserver(opts ...OTelOption) *OTelObserver {
	config := OTelConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &OTelObserver{config: config}
}

func (o *OTelObserver) OnEvent(event Event) {
	if o.config.Filter != nil {
		if !o.config.Filter(event) {
			return
		}
	} else if event.Type != EventFire && event.Type != EventPanic {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("rebind.effect", event.Source),
		attribute.String("rebind.event", string(event.Type)),
	}
	if n, ok := event.Data["bindings"].(int); ok {
		attrs = append(attrs, attribute.Int("rebind.bindings", n))
	}
	if reason, ok := event.Data["reason"].(string); ok {
		attrs = append(attrs, attribute.String("rebind.reason", reason))
	}
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(event)...)
	}

	// Reconstruct the span window from the recorded duration so the
	// span length matches the callback run.
	start := event.Timestamp
	if d, ok := event.Data["duration_seconds"].(float64); ok {
		start = event.Timestamp.Add(-time.Duration(d * float64(time.Second)))
	}

	_, span := o.config.tracer.Start(context.Background(),
		spanName(event),
		trace.WithTimestamp(start),
		trace.WithAttributes(attrs...),
	)

	if event.Type == EventPanic {
		if p, ok := event.Data["panic"]; ok {
			span.RecordError(fmt.Errorf("callback panic: %v", p))
		}
		span.SetStatus(codes.Error, "callback panic")
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(event.Timestamp))
}

func spanName(event Event) string {
	if event.Source != "" {
		return "effect " + event.Source
	}
	return "effect"
}
