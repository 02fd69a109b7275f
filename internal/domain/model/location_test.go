package model_test

import (
	"testing"

	"github.com/okian/spotrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDataset_Len(t *testing.T) {
	Convey("Given datasets of various sizes", t, func() {
		Convey("When the dataset is nil", func() {
			var ds *model.Dataset

			Convey("Then its length is zero", func() {
				So(ds.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the dataset has locations", func() {
			ds := &model.Dataset{Locations: []model.Location{{Name: "Mugar"}, {Name: "GSU"}}}

			Convey("Then its length counts them", func() {
				So(ds.Len(), ShouldEqual, 2)
			})
		})
	})
}
