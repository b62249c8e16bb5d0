package logger_test

import (
	"context"
	"testing"

	"github.com/mavrel/laddergen/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When logging through the facade", func() {
			log := logger.Get()
			ctx := context.Background()

			Convey("Then logging with fields does not panic", func() {
				So(func() {
					log.Info(ctx, "hello",
						logger.String("key", "value"),
						logger.Int("count", 3),
						logger.Float64("rating", 1000.5),
					)
					log.Named("child").Warn(ctx, "named logger works")
				}, ShouldNotPanic)
			})
		})

		Convey("When setting levels by name", func() {
			Convey("Then known names are accepted", func() {
				for _, level := range []string{"debug", "info", "warn", "warning", "error", ""} {
					So(logger.SetLevelString(level), ShouldBeNil)
				}
			})

			Convey("Then unknown names are rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
