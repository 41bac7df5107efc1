package model_test

import (
	"testing"

	"github.com/okian/appraisal/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEvaluatorWeights(t *testing.T) {
	convey.Convey("Given evaluator weights", t, func() {
		convey.Convey("When using the defaults", func() {
			w := model.DefaultEvaluatorWeights()

			convey.Convey("Then they are 70/30 and valid", func() {
				convey.So(w.Supervisor, convey.ShouldEqual, 0.70)
				convey.So(w.Self, convey.ShouldEqual, 0.30)
				convey.So(w.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the weights do not sum to one", func() {
			w := model.EvaluatorWeights{Supervisor: 0.6, Self: 0.3}

			convey.Convey("Then validation reports inconsistent weights", func() {
				convey.So(w.Validate(), convey.ShouldWrap, model.ErrInconsistentWeights)
			})
		})

		convey.Convey("When a weight is negative", func() {
			w := model.EvaluatorWeights{Supervisor: 1.2, Self: -0.2}

			convey.Convey("Then validation fails", func() {
				convey.So(w.Validate(), convey.ShouldWrap, model.ErrInconsistentWeights)
			})
		})

		convey.Convey("When the sum drifts within tolerance", func() {
			w := model.EvaluatorWeights{Supervisor: 0.1 + 0.2 + 0.4, Self: 0.3}

			convey.Convey("Then validation passes", func() {
				convey.So(w.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestResponseKey(t *testing.T) {
	convey.Convey("Given response keys", t, func() {
		convey.Convey("When a supervisor key lacks an evaluator", func() {
			k := model.ResponseKey{SubjectID: "s1", PeriodID: "2025", Role: model.RoleSupervisor}

			convey.Convey("Then it is invalid", func() {
				convey.So(k.Validate(), convey.ShouldWrap, model.ErrInvalidKey)
			})
		})

		convey.Convey("When a self key is complete", func() {
			k := model.ResponseKey{SubjectID: "s1", PeriodID: "2025", Role: model.RoleSelf}

			convey.Convey("Then it is valid and renders a path", func() {
				convey.So(k.Validate(), convey.ShouldBeNil)
				convey.So(k.String(), convey.ShouldEqual, "2025/s1/self")
			})
		})

		convey.Convey("When the role is unknown", func() {
			_, err := model.ParseRole("peer")

			convey.Convey("Then parsing fails", func() {
				convey.So(err, convey.ShouldWrap, model.ErrUnknownRole)
			})
		})
	})
}

func TestResponseSetClone(t *testing.T) {
	convey.Convey("Given a response set", t, func() {
		rs := &model.ResponseSet{
			ResponseKey: model.ResponseKey{SubjectID: "s1", PeriodID: "2025", Role: model.RoleSelf},
			Ratings:     map[string]int{"i1": 4},
			Comments:    map[string]string{"i1": "ok"},
		}

		convey.Convey("When cloning and mutating the clone", func() {
			c := rs.Clone()
			c.Ratings["i2"] = 5
			c.Comments["i1"] = "changed"

			convey.Convey("Then the original is untouched", func() {
				convey.So(len(rs.Ratings), convey.ShouldEqual, 1)
				convey.So(rs.Comments["i1"], convey.ShouldEqual, "ok")
			})
		})

		convey.Convey("When reading values", func() {
			v, ok := rs.Rating("i1")
			_, missing := rs.Rating("nope")

			convey.Convey("Then unanswered items are absent, not zero", func() {
				convey.So(v, convey.ShouldEqual, 4)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(missing, convey.ShouldBeFalse)
				convey.So(rs.Values(), convey.ShouldResemble, map[string]float64{"i1": 4})
			})
		})

		convey.Convey("When the set is nil", func() {
			var none *model.ResponseSet

			convey.Convey("Then reads are empty", func() {
				convey.So(none.Values(), convey.ShouldBeEmpty)
				convey.So(none.Clone(), convey.ShouldBeNil)
			})
		})
	})
}

func TestSubjectValidate(t *testing.T) {
	convey.Convey("Given subjects", t, func() {
		convey.Convey("When a supervisor is listed twice", func() {
			s := model.Subject{ID: "s1", Level: "operational", Supervisors: []model.Assignment{
				{EvaluatorID: "m1"}, {EvaluatorID: "m1"},
			}}

			convey.Convey("Then validation fails", func() {
				convey.So(s.Validate(), convey.ShouldWrap, model.ErrInvalidSubject)
			})
		})

		convey.Convey("When relationships are ranked", func() {
			convey.Convey("Then direct outranks secondary outranks unspecified", func() {
				convey.So(model.RelationshipDirect.Rank(), convey.ShouldBeGreaterThan, model.RelationshipSecondary.Rank())
				convey.So(model.RelationshipSecondary.Rank(), convey.ShouldBeGreaterThan, model.Relationship("").Rank())
			})
		})
	})
}
