package cobblecorex

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pebble-dev/cobblecorex/contrib/atomiccowcache"
	"github.com/pebble-dev/cobblecorex/pebblex"
)

type blobDBTelem struct {
	deviceAddress string
	tracer        trace.Tracer

	durationMetric metric.Float64Histogram
	attribsCache   *atomiccowcache.Cache[blobDBTelemOpKey, attribute.Set]
}

type blobDBTelemOpKey struct {
	op       pebblex.BlobOp
	database pebblex.BlobDatabase
	status   pebblex.BlobStatus
}

func newBlobDBTelem(deviceAddress string, tp trace.TracerProvider) *blobDBTelem {
	opTracer := tracer
	if tp != nil {
		opTracer = tp.Tracer("github.com/pebble-dev/cobblecorex",
			trace.WithInstrumentationVersion(buildVersion))
	}

	durationMetric, _ := meter.Float64Histogram("cobblecorex.blobdb.operation.duration",
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10))

	attribsCache := atomiccowcache.NewCache(
		func(k blobDBTelemOpKey) attribute.Set {
			return attribute.NewSet(
				semconv.ServerAddress(deviceAddress),
				semconv.DBNamespace(k.database.String()),
				semconv.DBOperationName(k.op.String()),
				attribute.String("pebble.blobdb.status", k.status.String()),
			)
		})

	return &blobDBTelem{
		deviceAddress:  deviceAddress,
		tracer:         opTracer,
		durationMetric: durationMetric,
		attribsCache:   attribsCache,
	}
}

type blobDBTelemOp struct {
	parent *blobDBTelem

	startTime time.Time
	op        pebblex.BlobOp
	database  pebblex.BlobDatabase
	status    pebblex.BlobStatus
	span      trace.Span
}

// BeginOp starts the span for a single attempt of cmd.  Every attempt gets
// its own span since every attempt carries its own token.
func (k *blobDBTelem) BeginOp(ctx context.Context, cmd *pebblex.BlobCommand, attempt int) (context.Context, *blobDBTelemOp) {
	startTime := time.Now()

	ctx, span := k.tracer.Start(ctx, "blobdb/"+cmd.Op.String(),
		trace.WithSpanKind(trace.SpanKindClient))
	if span.IsRecording() {
		span.SetAttributes(
			semconv.ServerAddress(k.deviceAddress),
			semconv.RPCMethod(cmd.Op.String()),
			semconv.RPCSystemKey.String("pebble-blobdb"),
			semconv.DBNamespace(cmd.Database.String()),
			attribute.Int("pebble.blobdb.attempt", attempt))
	}

	return ctx, &blobDBTelemOp{
		parent:    k,
		startTime: startTime,
		op:        cmd.Op,
		database:  cmd.Database,
		status:    pebblex.BlobStatusWatchDisconnected,
		span:      span,
	}
}

func (k *blobDBTelemOp) MarkSent(token uint16) {
	if k.span.IsRecording() {
		k.span.AddEvent("SENT", trace.WithAttributes(
			attribute.Int("pebble.blobdb.token", int(token))))
	}
}

func (k *blobDBTelemOp) MarkReceived() {
	k.span.AddEvent("RECEIVED")
}

func (k *blobDBTelemOp) RecordStatus(status pebblex.BlobStatus) {
	k.status = status
	if k.span.IsRecording() {
		k.span.SetAttributes(attribute.String("pebble.blobdb.status", status.String()))
	}
}

func (k *blobDBTelemOp) End(ctx context.Context, err error) {
	dtime := time.Since(k.startTime)

	if err != nil {
		k.span.RecordError(err)
	}
	k.span.End()

	attribs := k.parent.attribsCache.Get(blobDBTelemOpKey{
		op:       k.op,
		database: k.database,
		status:   k.status,
	})

	dtimeSecs := float64(dtime) / float64(time.Second)
	k.parent.durationMetric.Record(ctx, dtimeSecs, metric.WithAttributeSet(attribs))
}
