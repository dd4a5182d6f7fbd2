package cobblecorex

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pebble-dev/cobblecorex/contrib/buildversion"
)

var (
	buildVersion string = buildversion.GetVersion("github.com/pebble-dev/cobblecorex")
	meter               = otel.Meter("github.com/pebble-dev/cobblecorex",
		metric.WithInstrumentationVersion(buildVersion))
	tracer = otel.Tracer("github.com/pebble-dev/cobblecorex",
		trace.WithInstrumentationVersion(buildVersion))
)

var (
	// blobdbRetries counts the attempts which were repeated because the
	// watch answered TryLater.
	blobdbRetries, _ = meter.Int64Counter("cobblecorex.blobdb.retries")

	// connectionTransitions counts lifecycle state changes, by state.
	connectionTransitions, _ = meter.Int64Counter("cobblecorex.connection.transitions")

	// malformedFrames counts corrupt byte runs skipped by the frame decoder.
	malformedFrames, _ = meter.Int64Counter("cobblecorex.malformed_frames")
)
