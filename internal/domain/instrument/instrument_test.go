package instrument_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() instrument.Instrument {
	return instrument.Instrument{
		ID:    "inst-1",
		Level: "analyst",
		Performance: []instrument.Dimension{
			{ID: "d1", Name: "Quality", Weight: 0.6, Items: []instrument.Item{
				{ID: "i2", Order: 2}, {ID: "i1", Order: 1},
			}},
			{ID: "d2", Name: "Delivery", Weight: 0.4, Items: []instrument.Item{{ID: "i3", Order: 1}}},
		},
		Potential: []instrument.Dimension{
			{ID: "p1", Name: "Growth", Weight: 1.0, Items: []instrument.Item{{ID: "i4", Order: 1}}},
		},
	}
}

func TestCatalog(t *testing.T) {
	Convey("Given a valid instrument", t, func() {
		c, err := instrument.NewCatalog(sample())
		So(err, ShouldBeNil)

		Convey("When looking it up by level", func() {
			in, err := c.Lookup("Analyst")

			Convey("Then it is found case-insensitively with defaults filled", func() {
				So(err, ShouldBeNil)
				So(in.ID, ShouldEqual, "inst-1")
				So(in.Scale, ShouldResemble, instrument.Scale{Min: 1, Max: 5})
				So(in.Performance[0].Items[0].ID, ShouldEqual, "i1")
				So(in.ItemCount(), ShouldEqual, 4)
				So(in.HasItem("i4"), ShouldBeTrue)
				So(in.HasItem("zz"), ShouldBeFalse)
			})
		})

		Convey("When looking up an unknown level", func() {
			_, err := c.Lookup("director")

			Convey("Then ErrUnknownLevel is returned", func() {
				So(err, ShouldWrap, instrument.ErrUnknownLevel)
			})
		})
	})

	Convey("Given an instrument whose performance weights do not sum to one", t, func() {
		in := sample()
		in.Performance[1].Weight = 0.3

		Convey("When building the catalog", func() {
			_, err := instrument.NewCatalog(in)

			Convey("Then it fails at load time with inconsistent weights", func() {
				So(err, ShouldWrap, model.ErrInconsistentWeights)
			})
		})
	})

	Convey("Given an instrument with an invalid evaluator override", t, func() {
		in := sample()
		in.EvaluatorWeights = &model.EvaluatorWeights{Supervisor: 0.5, Self: 0.4}

		Convey("Then the catalog rejects it", func() {
			_, err := instrument.NewCatalog(in)
			So(err, ShouldWrap, model.ErrInconsistentWeights)
		})
	})

	Convey("Given structural faults", t, func() {
		Convey("When an item id repeats across dimensions", func() {
			in := sample()
			in.Potential[0].Items[0].ID = "i1"
			_, err := instrument.NewCatalog(in)
			So(err, ShouldWrap, instrument.ErrInvalidInstrument)
		})

		Convey("When a dimension has no items", func() {
			in := sample()
			in.Performance[1].Items = nil
			_, err := instrument.NewCatalog(in)
			So(err, ShouldWrap, instrument.ErrInvalidInstrument)
		})

		Convey("When two instruments share a level", func() {
			a, b := sample(), sample()
			b.ID = "inst-2"
			_, err := instrument.NewCatalog(a, b)
			So(err, ShouldWrap, instrument.ErrInvalidInstrument)
		})

		Convey("When the scale is empty", func() {
			in := sample()
			in.Scale = instrument.Scale{Min: 3, Max: 3}
			_, err := instrument.NewCatalog(in)
			So(err, ShouldWrap, instrument.ErrInvalidInstrument)
		})
	})

	Convey("Given an instrument without potential dimensions", t, func() {
		in := sample()
		in.Potential = nil

		Convey("Then it is valid but scores no potential", func() {
			c, err := instrument.NewCatalog(in)
			So(err, ShouldBeNil)
			got, _ := c.Lookup("analyst")
			So(got.HasPotential(), ShouldBeFalse)
		})
	})
}

func TestWeightsOverride(t *testing.T) {
	Convey("Given the fallback evaluator weights", t, func() {
		fallback := model.DefaultEvaluatorWeights()

		Convey("When the instrument has no override", func() {
			Convey("Then the fallback is used", func() {
				So(sample().Weights(fallback), ShouldResemble, fallback)
			})
		})

		Convey("When the instrument overrides them", func() {
			in := sample()
			in.EvaluatorWeights = &model.EvaluatorWeights{Supervisor: 0.8, Self: 0.2}

			Convey("Then the override wins", func() {
				So(in.Weights(fallback).Supervisor, ShouldEqual, 0.8)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given the bundled catalog", t, func() {
		c, err := instrument.Default()

		Convey("Then it loads and validates every level", func() {
			So(err, ShouldBeNil)
			So(c.Levels(), ShouldResemble, []string{"management", "operational", "technical"})
			mg, err := c.Lookup("management")
			So(err, ShouldBeNil)
			So(mg.EvaluatorWeights, ShouldNotBeNil)
			So(mg.EvaluatorWeights.Supervisor, ShouldEqual, 0.8)
			So(mg.HasPotential(), ShouldBeTrue)
		})
	})

	Convey("Given a catalog file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "catalog.yaml")
		content := `
instruments:
  - id: x
    level: clerk
    scale: {min: 0, max: 10}
    performance:
      - id: d
        name: Accuracy
        weight: 1
        items:
          - {id: a, order: 1, text: Accurate}
`
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			c, err := instrument.LoadFile(path)

			Convey("Then the custom scale is kept", func() {
				So(err, ShouldBeNil)
				in, _ := c.Lookup("clerk")
				So(in.Scale, ShouldResemble, instrument.Scale{Min: 0, Max: 10})
				So(in.Performance[0].Weight, ShouldEqual, 1.0)
			})
		})
	})

	Convey("Given malformed catalogs", t, func() {
		Convey("When the YAML is invalid", func() {
			_, err := instrument.Parse([]byte("instruments: ["))
			So(err, ShouldWrap, instrument.ErrLoadCatalog)
		})

		Convey("When no instruments are listed", func() {
			_, err := instrument.Parse([]byte("other: 1\n"))
			So(err, ShouldWrap, instrument.ErrLoadCatalog)
		})

		Convey("When the file does not exist", func() {
			_, err := instrument.LoadFile("/non/existent/catalog.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}
