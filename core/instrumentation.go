package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	sessionStarts, _ = meter.Int64Counter("avatar.session.starts",
		metric.WithDescription("Session start attempts by outcome"))
	sessionStops, _ = meter.Int64Counter("avatar.session.stops",
		metric.WithDescription("Sessions ended by stop request or disconnect"))
)
