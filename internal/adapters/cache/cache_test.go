package cache_test

import (
	"testing"

	"github.com/okian/appraisal/internal/adapters/cache"
	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sets(selfRev, supRev int64) []*model.ResponseSet {
	return []*model.ResponseSet{
		{ResponseKey: model.ResponseKey{SubjectID: "emp-1", PeriodID: "2025", Role: model.RoleSelf}, Revision: selfRev, Submitted: true},
		{ResponseKey: model.ResponseKey{SubjectID: "emp-1", PeriodID: "2025", Role: model.RoleSupervisor, EvaluatorID: "m1"}, Revision: supRev, Submitted: true},
	}
}

func TestResultCache(t *testing.T) {
	sub := model.Subject{ID: "emp-1", Level: "operational", Supervisors: []model.Assignment{{EvaluatorID: "m1", Relationship: model.RelationshipDirect}}}
	w := model.DefaultEvaluatorWeights()

	Convey("Given a cache of two entries", t, func() {
		c, err := cache.New(cache.WithSize(2))
		So(err, ShouldBeNil)

		Convey("When results are added and read back", func() {
			key := cache.Fingerprint(sub, "ops-v1", w, "2025", sets(2, 3))
			c.Add(key, repository.Results{SubjectID: "emp-1", PeriodID: "2025"})
			got, ok := c.Get(key)

			Convey("Then the entry is found", func() {
				So(ok, ShouldBeTrue)
				So(got.SubjectID, ShouldEqual, "emp-1")
			})
		})

		Convey("When a third entry is added", func() {
			c.Add("a", repository.Results{})
			c.Add("b", repository.Results{})
			c.Add("c", repository.Results{})

			Convey("Then the least recently used one is evicted", func() {
				So(c.Len(), ShouldEqual, 2)
				_, ok := c.Get("a")
				So(ok, ShouldBeFalse)
			})

			Convey("And purge empties it", func() {
				c.Purge()
				So(c.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an invalid size", t, func() {
		_, err := cache.New(cache.WithSize(0))

		Convey("Then the cache is refused", func() {
			So(err, ShouldEqual, cache.ErrInvalidSize)
		})
	})

	Convey("Given fingerprints of the same subject", t, func() {
		base := cache.Fingerprint(sub, "ops-v1", w, "2025", sets(2, 3))

		Convey("Then they are stable and order independent", func() {
			s := sets(2, 3)
			So(cache.Fingerprint(sub, "ops-v1", w, "2025", []*model.ResponseSet{s[1], s[0]}), ShouldEqual, base)
		})

		Convey("Then any input change yields a new key", func() {
			So(cache.Fingerprint(sub, "ops-v1", w, "2025", sets(2, 4)), ShouldNotEqual, base)
			So(cache.Fingerprint(sub, "ops-v2", w, "2025", sets(2, 3)), ShouldNotEqual, base)
			So(cache.Fingerprint(sub, "ops-v1", model.EvaluatorWeights{Supervisor: 0.8, Self: 0.2}, "2025", sets(2, 3)), ShouldNotEqual, base)

			other := sub
			other.Supervisors = append([]model.Assignment{{EvaluatorID: "m0"}}, sub.Supervisors...)
			So(cache.Fingerprint(other, "ops-v1", w, "2025", sets(2, 3)), ShouldNotEqual, base)
		})

		Convey("Then unsubmitted sets are ignored", func() {
			s := sets(2, 3)
			s = append(s, &model.ResponseSet{ResponseKey: model.ResponseKey{SubjectID: "emp-1", PeriodID: "2025", Role: model.RoleSupervisor, EvaluatorID: "m9"}, Revision: 7})
			So(cache.Fingerprint(sub, "ops-v1", w, "2025", s), ShouldEqual, base)
		})
	})
}
