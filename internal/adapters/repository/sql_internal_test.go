package repository

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRebind(t *testing.T) {
	Convey("rebind", t, func() {
		query := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"

		Convey("leaves sqlite queries alone", func() {
			s := &SQLStore{driver: DriverSQLite}
			So(s.rebind(query), ShouldEqual, query)
		})

		Convey("numbers postgres placeholders", func() {
			s := &SQLStore{driver: DriverPostgres}
			So(s.rebind(query), ShouldEqual, "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)")
		})
	})
}
