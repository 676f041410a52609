package main

import (
	"context"
	"flag"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/feedsim/app_setting"
	"github.com/Luismorlan/feedsim/audit"
	"github.com/Luismorlan/feedsim/clock"
	"github.com/Luismorlan/feedsim/server"
	"github.com/Luismorlan/feedsim/server/middlewares"
	"github.com/Luismorlan/feedsim/store"
	. "github.com/Luismorlan/feedsim/utils"
	"github.com/Luismorlan/feedsim/utils/dotenv"
	. "github.com/Luismorlan/feedsim/utils/flag"
	. "github.com/Luismorlan/feedsim/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

var (
	// Configuration to customize binary startup.
	AppSetting app_setting.ServerAppSetting
)

func cleanup() {
	if AppSetting.ENABLE_TRACING {
		CloseProfiler()
		CloseTracer()
	}
	Log.Info("api server shutdown")
}

func newClock(ctx context.Context, st *store.GormStore) clock.Service {
	var svc clock.Service = clock.NewStoreClock(st)
	if !AppSetting.ENABLE_ROUND_CACHE {
		return svc
	}
	client, err := GetRedisClient(ctx)
	if err != nil {
		Log.WithError(err).Warn("round cache disabled, redis is unreachable")
		return svc
	}
	ttl := time.Duration(AppSetting.ROUND_CACHE_TTL_SECOND) * time.Second
	return clock.NewCachedClock(svc, client, ttl)
}

// newFeedLog records served feeds in the database and, when the reporter is
// enabled, mirrors them on the audit bus consumed by the returned engine.
func newFeedLog(st *store.GormStore) (audit.Log, *audit.Engine) {
	var feedLog audit.Log = audit.NewStoreLog(st)
	if !AppSetting.ENABLE_FEED_REPORTER {
		return feedLog, nil
	}
	statsdClient, err := statsd.New(AppSetting.STATSD_ADDR)
	if err != nil {
		Log.WithError(err).Warn("feed reporter disabled, fail to create statsd client")
		return feedLog, nil
	}

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            AppSetting.EVENT_BUS_BUFFER,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
	modules := []audit.Module{
		// Reporter counts served feeds per strategy on Datadog.
		audit.NewReporter(audit.ReporterConfig{Name: "feed_reporter"}, statsdClient, eventbus),
	}
	return audit.NewPublishingLog(feedLog, eventbus), audit.NewEngine(modules, eventbus)
}

func main() {
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	flag.Parse()

	var err error
	if AppSetting, err = app_setting.ParseServerAppSetting(*AppSettingPath); err != nil {
		panic(err)
	}

	db, err := GetDBConnection()
	if err != nil {
		panic(err)
	}
	if AppSetting.AUTO_MIGRATE {
		if err := DatabaseSetupAndMigration(db); err != nil {
			panic(err)
		}
	}
	st := store.NewGormStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedLog, engine := newFeedLog(st)
	if engine != nil {
		go engine.Run(ctx)
		defer engine.Shutdown()
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(middlewares.RequestID(), middlewares.AccessLog())
	if AppSetting.ENABLE_TRACING {
		StartTracer()
		if err := StartProfiler(); err != nil {
			Log.WithError(err).Warn("fail to start profiler")
		}
		router.Use(gintrace.Middleware(*ServiceName))
	}

	server.NewServer(st, newClock(ctx, st), feedLog).RegisterRoutes(router)

	Log.Infof("api server starts up on %s", AppSetting.LISTEN_ADDR)
	if err := router.Run(AppSetting.LISTEN_ADDR); err != nil {
		Log.WithError(err).Error("api server stopped")
	}
}
