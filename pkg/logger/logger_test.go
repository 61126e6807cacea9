package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it writes JSON to a buffer", func() {
			var buf bytes.Buffer
			So(Init(WithFormat(FormatJSON), WithWriter(&buf)), ShouldBeNil)

			Named("registry").Info(context.Background(), "merged",
				Int("entries", 3),
				Bool("persisted", true),
				Duration("took", time.Second),
			)

			Convey("Then the record carries the group and fields", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "merged")
				group, ok := rec["registry"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["entries"], ShouldEqual, 3)
				So(group["persisted"], ShouldEqual, true)
				So(group["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given a text logger at info level", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithCaller(false)), ShouldBeNil)
		l := Get()
		ctx := context.Background()

		Convey("When debug is logged before and after lowering the level", func() {
			l.Debug(ctx, "hidden")
			So(SetLevelString("debug"), ShouldBeNil)
			l.Debug(ctx, "shown")

			Convey("Then only the second record is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
				So(buf.String(), ShouldNotContainSubstring, "source=")
			})
		})

		Convey("When With attaches fields", func() {
			l.With(String("run_id", "abc")).Warn(ctx, "slow fetch")

			Convey("Then they appear on the record", func() {
				So(buf.String(), ShouldContainSubstring, "run_id=abc")
				So(buf.String(), ShouldContainSubstring, "level=WARN")
			})
		})

		Convey("When an unknown level string is given", func() {
			err := SetLevelString("verbose")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
				So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
			})
		})

		Reset(func() { _ = SetLevelString("info") })
	})
}
