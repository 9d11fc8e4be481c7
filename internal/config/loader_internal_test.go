package config

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSplitList(t *testing.T) {
	convey.Convey("Given comma-separated env values", t, func() {
		convey.So(splitList("rescue, kina ,,dishes"), convey.ShouldResemble, []string{"rescue", "kina", "dishes"})
		convey.So(splitList(""), convey.ShouldBeEmpty)
		convey.So(splitList(""), convey.ShouldNotBeNil)
	})
}
