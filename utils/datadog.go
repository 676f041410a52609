package utils

import (
	"github.com/Luismorlan/feedsim/utils/dotenv"
	. "github.com/Luismorlan/feedsim/utils/flag"
	. "github.com/Luismorlan/feedsim/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

func datadogEnv() string {
	if dotenv.IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for this service.
func StartTracer() {
	tracer.Start(
		tracer.WithService(*ServiceName),
		tracer.WithEnv(datadogEnv()),
	)
	Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}

// StartProfiler starts the Datadog profiler, CPU and heap only to keep
// overhead low.
func StartProfiler() error {
	return profiler.Start(
		profiler.WithService(*ServiceName),
		profiler.WithEnv(datadogEnv()),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	)
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
