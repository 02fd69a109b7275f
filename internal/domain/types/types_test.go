package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/spotrank/internal/domain/model"
	types "github.com/okian/spotrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleLocation() model.Location {
	return model.Location{
		Name:            "Mugar Library",
		Latitude:        42.3505,
		Longitude:       -71.1081,
		UserRating:      4.5,
		NumberOfRatings: 320,
		CurrentCapacity: 40,
		MaxCapacity:     200,
		Attributes:      map[string]string{"Noise Level": "quiet"},
	}
}

func TestNewRecord(t *testing.T) {
	Convey("Given a location with extra attributes", t, func() {
		rec := types.NewRecord(sampleLocation())

		Convey("Then required columns use the dataset header names", func() {
			So(rec[types.ColumnName], ShouldEqual, "Mugar Library")
			So(rec[types.ColumnUserRating], ShouldEqual, 4.5)
			So(rec[types.ColumnMaxCapacity], ShouldEqual, 200.0)
		})

		Convey("Then extra attributes are carried through", func() {
			So(rec["Noise Level"], ShouldEqual, "quiet")
		})
	})

	Convey("Given an attribute that collides with a required column", t, func() {
		loc := sampleLocation()
		loc.Attributes = map[string]string{types.ColumnName: "spoofed"}
		rec := types.NewRecord(loc)

		Convey("Then the required column wins", func() {
			So(rec[types.ColumnName], ShouldEqual, "Mugar Library")
		})
	})
}

func TestEntry_JSON(t *testing.T) {
	Convey("Given a ranked entry", t, func() {
		entry := types.Entry{Record: types.NewRecord(sampleLocation()), Score: 0.8125}

		Convey("When encoding it", func() {
			data, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			Convey("Then it is a [record, score] pair", func() {
				var pair []json.RawMessage
				So(json.Unmarshal(data, &pair), ShouldBeNil)
				So(pair, ShouldHaveLength, 2)
				So(string(pair[1]), ShouldEqual, "0.8125")
				So(string(pair[0]), ShouldContainSubstring, `"Name":"Mugar Library"`)
			})

			Convey("Then it decodes back to the same score and name", func() {
				var decoded types.Entry
				So(json.Unmarshal(data, &decoded), ShouldBeNil)
				So(decoded.Score, ShouldEqual, 0.8125)
				So(decoded.Record[types.ColumnName], ShouldEqual, "Mugar Library")
			})
		})

		Convey("When decoding something that is not a pair", func() {
			var decoded types.Entry
			err := json.Unmarshal([]byte(`{"score":1}`), &decoded)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewExplained(t *testing.T) {
	Convey("Given a two-entry ranking", t, func() {
		ranked := []model.Scored{
			{Location: sampleLocation(), Score: 0.9, Components: model.Components{
				DistanceMiles: 0.2, Rating: 0.8, Crowd: 0.7, Location: 0.98,
				Weights: model.Weights{Rating: 0.5, Crowd: 0.3, Location: 0.2},
			}},
			{Location: model.Location{Name: "GSU"}, Score: 0.4},
		}
		out := types.NewExplained(ranked)

		Convey("Then ranks are 1-based and components copied", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].Rank, ShouldEqual, 1)
			So(out[1].Rank, ShouldEqual, 2)
			So(out[0].Weights.Rating, ShouldEqual, 0.5)
			So(out[0].Location, ShouldEqual, 0.98)
		})

		Convey("Then entries keep ranking order", func() {
			entries := types.NewEntries(ranked)
			So(entries[0].Score, ShouldEqual, 0.9)
			So(entries[1].Record[types.ColumnName], ShouldEqual, "GSU")
		})
	})
}
