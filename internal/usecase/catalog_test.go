package usecase

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"dumpfleet/internal/domain"
)

func TestEnumerate(t *testing.T) {
	catalog := []domain.DatabaseInfo{
		{Name: "postgres", SizeBytes: 8 << 20, System: true},
		{Name: "orders", SizeBytes: 120 << 20},
		{Name: "billing", SizeBytes: 40 << 20},
		{Name: "staging", SizeBytes: 5 << 20},
	}

	Convey("Given a server catalog with system and user databases", t, func() {
		enum := NewEnumerator(&fakeDB{listInfos: catalog})

		Convey("When no databases are requested", func() {
			targets, missing, err := enum.Enumerate(context.Background(), nil)

			Convey("It should select every user database in catalog order", func() {
				So(err, ShouldBeNil)
				So(missing, ShouldBeEmpty)
				So(len(targets), ShouldEqual, 3)
				So(targets[0].Name, ShouldEqual, "orders")
				So(targets[1].Name, ShouldEqual, "billing")
				So(targets[2].Name, ShouldEqual, "staging")
				So(targets[0].SizeBytes, ShouldEqual, int64(120<<20))
			})
		})

		Convey("When some requested databases do not exist", func() {
			targets, missing, err := enum.Enumerate(context.Background(), []string{"billing", "ghost", "orders"})

			Convey("It should keep the request order and report the absentees", func() {
				So(err, ShouldBeNil)
				So(missing, ShouldResemble, []string{"ghost"})
				So(len(targets), ShouldEqual, 2)
				So(targets[0].Name, ShouldEqual, "billing")
				So(targets[1].Name, ShouldEqual, "orders")
			})
		})

		Convey("When a request repeats a name", func() {
			targets, _, err := enum.Enumerate(context.Background(), []string{"orders", "orders"})

			Convey("It should back the database up once", func() {
				So(err, ShouldBeNil)
				So(len(targets), ShouldEqual, 1)
			})
		})

		Convey("When a system database is requested by name", func() {
			targets, missing, err := enum.Enumerate(context.Background(), []string{"postgres"})

			Convey("It should honor the explicit request", func() {
				So(err, ShouldBeNil)
				So(missing, ShouldBeEmpty)
				So(len(targets), ShouldEqual, 1)
				So(targets[0].Name, ShouldEqual, "postgres")
			})
		})

		Convey("When every requested database is absent", func() {
			targets, missing, err := enum.Enumerate(context.Background(), []string{"ghost", "phantom"})

			Convey("It should fail with an empty catalog error", func() {
				So(targets, ShouldBeEmpty)
				So(missing, ShouldResemble, []string{"ghost", "phantom"})

				var empty *domain.EmptyCatalogError
				So(errors.As(err, &empty), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "ghost")
			})
		})
	})

	Convey("Given a server with only system databases", t, func() {
		enum := NewEnumerator(&fakeDB{listInfos: []domain.DatabaseInfo{
			{Name: "postgres", System: true},
		}})

		Convey("When no databases are requested", func() {
			targets, _, err := enum.Enumerate(context.Background(), nil)

			Convey("It should fail with an empty catalog error", func() {
				So(targets, ShouldBeEmpty)

				var empty *domain.EmptyCatalogError
				So(errors.As(err, &empty), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "no user databases")
			})
		})
	})

	Convey("Given a catalog query that fails", t, func() {
		enum := NewEnumerator(&fakeDB{listErr: errors.New("connection reset")})

		Convey("When enumeration runs", func() {
			targets, _, err := enum.Enumerate(context.Background(), nil)

			Convey("It should surface the failure", func() {
				So(targets, ShouldBeEmpty)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to list databases")
			})
		})
	})
}
