package usecase

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"dumpfleet/internal/domain"
)

func TestSummarize(t *testing.T) {
	Convey("Given outcomes with successes and failures", t, func() {
		outcomes := []domain.Outcome{
			{Database: "orders", SizeBytes: 100, Status: domain.StatusSuccess},
			{Database: "billing", SizeBytes: 0, Status: domain.StatusFailed, Cause: "pg_dump failed"},
			{Database: "staging", SizeBytes: 250, Status: domain.StatusSuccess},
		}

		Convey("When the report is built", func() {
			report := Summarize(outcomes)

			Convey("It should count every outcome exactly once", func() {
				So(report.Total, ShouldEqual, 3)
				So(report.Succeeded, ShouldEqual, 2)
				So(report.Failed, ShouldEqual, 1)
			})

			Convey("It should sum sizes over successes only", func() {
				So(report.TotalSizeBytes, ShouldEqual, 350)
			})

			Convey("It should carry the failure details", func() {
				So(len(report.Failures), ShouldEqual, 1)
				So(report.Failures[0].Database, ShouldEqual, "billing")
				So(report.Failures[0].Cause, ShouldEqual, "pg_dump failed")
			})
		})
	})

	Convey("Given no outcomes", t, func() {
		Convey("When the report is built", func() {
			report := Summarize(nil)

			Convey("It should be all zeros", func() {
				So(report.Total, ShouldEqual, 0)
				So(report.TotalSizeBytes, ShouldEqual, 0)
				So(report.Failures, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a run where everything failed", t, func() {
		outcomes := []domain.Outcome{
			{Database: "a", Status: domain.StatusFailed, Cause: "disk full"},
			{Database: "b", Status: domain.StatusFailed, Cause: "disk full"},
		}

		Convey("When the report is built", func() {
			report := Summarize(outcomes)

			Convey("It should report zero bytes and every failure", func() {
				So(report.Succeeded, ShouldEqual, 0)
				So(report.Failed, ShouldEqual, 2)
				So(report.TotalSizeBytes, ShouldEqual, 0)
				So(len(report.Failures), ShouldEqual, 2)
			})
		})
	})
}
