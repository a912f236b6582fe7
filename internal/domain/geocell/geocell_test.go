package geocell_test

import (
	"errors"
	"testing"

	"github.com/okian/firewatch/internal/domain/geocell"
	. "github.com/smartystreets/goconvey/convey"
)

func TestToken(t *testing.T) {
	Convey("Given a coordinate", t, func() {
		lat, lon := 20.0, 78.0

		Convey("When computing its cell token", func() {
			tok := geocell.Token(lat, lon, geocell.DefaultLevel)

			Convey("Then the token decodes to a cell of that level", func() {
				So(tok, ShouldNotBeEmpty)
				level, err := geocell.Level(tok)
				So(err, ShouldBeNil)
				So(level, ShouldEqual, geocell.DefaultLevel)
			})

			Convey("Then the cell center lies close to the coordinate", func() {
				cLat, cLon, err := geocell.Center(tok)
				So(err, ShouldBeNil)
				So(geocell.DistanceKm(lat, lon, cLat, cLon), ShouldBeLessThan, 2.0)
			})

			Convey("Then a nearby point shares the cell", func() {
				So(geocell.Token(lat+0.0001, lon+0.0001, geocell.DefaultLevel), ShouldEqual, tok)
			})

			Convey("Then a distant point does not", func() {
				So(geocell.Token(-33.9, 151.2, geocell.DefaultLevel), ShouldNotEqual, tok)
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given malformed tokens", t, func() {
		for _, tok := range []string{"", "zz", "X"} {
			_, err := geocell.Parse(tok)

			Convey("Then "+tok+" is rejected", func() {
				So(errors.Is(err, geocell.ErrInvalidToken), ShouldBeTrue)
			})
		}
	})
}

func TestValidateLevel(t *testing.T) {
	Convey("Given levels", t, func() {
		So(geocell.ValidateLevel(0), ShouldBeNil)
		So(geocell.ValidateLevel(30), ShouldBeNil)
		So(errors.Is(geocell.ValidateLevel(-1), geocell.ErrInvalidLevel), ShouldBeTrue)
		So(errors.Is(geocell.ValidateLevel(31), geocell.ErrInvalidLevel), ShouldBeTrue)
	})
}

func TestDistanceKm(t *testing.T) {
	Convey("Given two points one degree of latitude apart", t, func() {
		d := geocell.DistanceKm(0, 0, 1, 0)

		Convey("Then they are about 111 km apart", func() {
			So(d, ShouldAlmostEqual, 111.19, 0.05)
		})
	})
}
