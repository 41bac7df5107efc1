package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/appraisal/internal/adapters/repository"
	service "github.com/okian/appraisal/internal/app"
	"github.com/okian/appraisal/internal/domain/consolidate"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
	"github.com/okian/appraisal/internal/domain/scoring"
	"github.com/okian/appraisal/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const period = "2025"

func testCatalog() *instrument.Catalog {
	item := func(id string) instrument.Item { return instrument.Item{ID: id, Order: 1, Text: id} }
	c, err := instrument.NewCatalog(
		instrument.Instrument{
			ID:    "inst-ops",
			Level: "ops",
			Scale: instrument.Scale{Min: 1, Max: 5},
			Performance: []instrument.Dimension{
				{ID: "quality", Name: "Quality", Weight: 1, Items: []instrument.Item{item("q1"), item("q2")}},
			},
			Potential: []instrument.Dimension{
				{ID: "growth", Name: "Growth", Weight: 1, Items: []instrument.Item{item("g1"), item("g2")}},
			},
		},
		instrument.Instrument{
			ID:    "inst-clerk",
			Level: "clerk",
			Scale: instrument.Scale{Min: 1, Max: 5},
			Performance: []instrument.Dimension{
				{ID: "accuracy", Name: "Accuracy", Weight: 1, Items: []instrument.Item{item("c1"), item("c2")}},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func opsRatings(v int) map[string]int {
	return map[string]int{"q1": v, "q2": v, "g1": v, "g2": v}
}

func selfKey(subject string) model.ResponseKey {
	return model.ResponseKey{SubjectID: subject, PeriodID: period, Role: model.RoleSelf}
}

func supKey(subject, evaluator string) model.ResponseKey {
	return model.ResponseKey{SubjectID: subject, PeriodID: period, Role: model.RoleSupervisor, EvaluatorID: evaluator}
}

func newService() *service.Service {
	svc, err := service.New(
		service.WithCatalog(testCatalog()),
		service.WithWorkerCount(2),
		service.WithQueueSize(100),
		service.WithMaxLeaderboardLimit(10),
	)
	if err != nil {
		panic(err)
	}
	return svc
}

func saveAndSubmit(ctx context.Context, svc *service.Service, key model.ResponseKey, ratings map[string]int) {
	_, err := svc.SaveResponses(ctx, key, ratings, nil)
	So(err, ShouldBeNil)
	_, err = svc.Submit(ctx, key, "")
	So(err, ShouldBeNil)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc, err := service.New()

		Convey("Then it should load the embedded instruments", func() {
			So(err, ShouldBeNil)
			So(svc.Levels(), ShouldNotBeEmpty)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given inconsistent evaluator weights", t, func() {
		_, err := service.New(service.WithEvaluatorWeights(model.EvaluatorWeights{Supervisor: 0.9, Self: 0.3}))

		Convey("Then construction fails", func() {
			So(err, ShouldWrap, model.ErrInconsistentWeights)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		defer func() { _ = svc.Shutdown(ctx) }()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And shutting down twice is harmless", func() {
				So(svc.Shutdown(ctx), ShouldBeNil)
				So(svc.Shutdown(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Responses(t *testing.T) {
	Convey("Given a subject with one direct supervisor", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.PutSubject(ctx, model.Subject{
			ID: "emp-1", Level: "ops",
			Supervisors: []model.Assignment{{EvaluatorID: "m1", Relationship: model.RelationshipDirect}},
		}), ShouldBeNil)

		Convey("When saving part of the self-evaluation", func() {
			saved, err := svc.SaveResponses(ctx, selfKey("emp-1"), map[string]int{"q1": 4}, map[string]string{"q1": "fine"})

			Convey("Then progress reflects the answered items", func() {
				So(err, ShouldBeNil)
				So(saved.Set.Revision, ShouldEqual, 1)
				So(saved.Progress.AnsweredItems, ShouldEqual, 1)
				So(saved.Progress.TotalItems, ShouldEqual, 4)
				So(saved.Progress.Complete(), ShouldBeFalse)
			})

			Convey("And submitting is refused until every item is answered", func() {
				_, err := svc.Submit(ctx, selfKey("emp-1"), "sub-1")
				So(err, ShouldWrap, service.ErrIncomplete)
				So(err.Error(), ShouldContainSubstring, "Quality")

				_, err = svc.SaveResponses(ctx, selfKey("emp-1"), opsRatings(4), nil)
				So(err, ShouldBeNil)

				// The refused id was released and can be retried.
				sub, err := svc.Submit(ctx, selfKey("emp-1"), "sub-1")
				So(err, ShouldBeNil)
				So(sub.Duplicate, ShouldBeFalse)
				So(sub.Set.Submitted, ShouldBeTrue)
			})
		})

		Convey("When the self key names the subject as evaluator", func() {
			_, err := svc.SaveResponses(ctx, model.ResponseKey{
				SubjectID: "emp-1", PeriodID: period, Role: model.RoleSelf, EvaluatorID: "emp-1",
			}, map[string]int{"q1": 2}, nil)
			So(err, ShouldBeNil)

			Convey("Then it addresses the same set", func() {
				rep, err := svc.Progress(ctx, selfKey("emp-1"))
				So(err, ShouldBeNil)
				So(rep.AnsweredItems, ShouldEqual, 1)
			})
		})

		Convey("When a rating is outside the scale", func() {
			_, err := svc.SaveResponses(ctx, selfKey("emp-1"), map[string]int{"q1": 6}, nil)

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, service.ErrRatingOutOfScale)
			})
		})

		Convey("When an item is not in the instrument", func() {
			_, err := svc.SaveResponses(ctx, selfKey("emp-1"), map[string]int{"nope": 3}, nil)

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, service.ErrUnknownItem)
			})
		})

		Convey("When an unassigned supervisor saves responses", func() {
			_, err := svc.SaveResponses(ctx, supKey("emp-1", "stranger"), opsRatings(3), nil)

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, service.ErrNotAssigned)
			})
		})

		Convey("When the subject is unknown", func() {
			_, err := svc.SaveResponses(ctx, selfKey("ghost"), opsRatings(3), nil)

			Convey("Then it is not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When a set was submitted", func() {
			saveAndSubmit(ctx, svc, selfKey("emp-1"), opsRatings(4))

			Convey("Then it can no longer be edited", func() {
				_, err := svc.SaveResponses(ctx, selfKey("emp-1"), map[string]int{"q1": 1}, nil)
				So(err, ShouldWrap, repository.ErrSubmitted)
			})

			Convey("And resubmitting under a new id is a conflict", func() {
				_, err := svc.Submit(ctx, selfKey("emp-1"), "another")
				So(err, ShouldWrap, repository.ErrSubmitted)
			})
		})

		Convey("When the same submission id is sent twice", func() {
			_, err := svc.SaveResponses(ctx, selfKey("emp-1"), opsRatings(4), nil)
			So(err, ShouldBeNil)
			first, err := svc.Submit(ctx, selfKey("emp-1"), "once")
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, selfKey("emp-1"), "once")

			Convey("Then the second call is a duplicate that changes nothing", func() {
				So(err, ShouldBeNil)
				So(second.Duplicate, ShouldBeTrue)
				So(second.Set.Revision, ShouldEqual, first.Set.Revision)
			})
		})

		Convey("When one submission id is reused for another key", func() {
			_, err := svc.SaveResponses(ctx, selfKey("emp-1"), opsRatings(4), nil)
			So(err, ShouldBeNil)
			_, err = svc.SaveResponses(ctx, supKey("emp-1", "m1"), opsRatings(3), nil)
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, selfKey("emp-1"), "shared")
			So(err, ShouldBeNil)
			sub, err := svc.Submit(ctx, supKey("emp-1", "m1"), "shared")

			Convey("Then the second key is submitted on its own", func() {
				So(err, ShouldBeNil)
				So(sub.Duplicate, ShouldBeFalse)
				So(sub.Set.Role, ShouldEqual, model.RoleSupervisor)
				So(sub.Set.EvaluatorID, ShouldEqual, "m1")
				So(sub.Set.Submitted, ShouldBeTrue)
			})
		})
	})

	Convey("Given a subject whose level has no instrument", t, func() {
		svc := newService()
		err := svc.PutSubject(context.Background(), model.Subject{ID: "emp-9", Level: "astronaut"})

		Convey("Then it is rejected", func() {
			So(err, ShouldWrap, instrument.ErrUnknownLevel)
		})
	})
}

func TestService_Results(t *testing.T) {
	Convey("Given a subject with two supervisors", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.PutSubject(ctx, model.Subject{
			ID: "emp-1", Level: "ops",
			Supervisors: []model.Assignment{
				{EvaluatorID: "m1", Relationship: model.RelationshipDirect},
				{EvaluatorID: "m2", Relationship: model.RelationshipSecondary},
			},
		}), ShouldBeNil)

		Convey("When nothing was submitted", func() {
			_, err := svc.SaveResponses(ctx, selfKey("emp-1"), opsRatings(4), nil)
			So(err, ShouldBeNil)
			_, err = svc.Results(ctx, period, "emp-1")

			Convey("Then results are not yet available", func() {
				So(err, ShouldWrap, scoring.ErrInsufficientData)
			})
		})

		Convey("When only the self-evaluation was submitted", func() {
			saveAndSubmit(ctx, svc, selfKey("emp-1"), opsRatings(4))
			r, err := svc.Results(ctx, period, "emp-1")

			Convey("Then every supervisor result falls back to self, flagged pending", func() {
				So(err, ShouldBeNil)
				So(len(r.Evaluations), ShouldEqual, 2)
				for _, e := range r.Evaluations {
					So(e.SupervisorPending, ShouldBeTrue)
					So(e.Performance, ShouldEqual, 75.0)
					So(e.SupervisorScore, ShouldBeNil)
				}
				So(r.Evaluations[0].EvaluatorID, ShouldEqual, "m1")
				So(r.Consolidated, ShouldBeNil)
			})

			Convey("And there is nothing to consolidate", func() {
				_, err := svc.Consolidated(ctx, period, "emp-1")
				So(err, ShouldWrap, consolidate.ErrEmptyConsolidationSet)
			})
		})

		Convey("When both supervisors and the subject submitted", func() {
			saveAndSubmit(ctx, svc, selfKey("emp-1"), opsRatings(4))
			saveAndSubmit(ctx, svc, supKey("emp-1", "m1"), opsRatings(5))
			saveAndSubmit(ctx, svc, supKey("emp-1", "m2"), opsRatings(3))

			r, err := svc.Results(ctx, period, "emp-1")

			Convey("Then each supervisor is blended with self 70/30", func() {
				So(err, ShouldBeNil)
				So(len(r.Evaluations), ShouldEqual, 2)
				So(r.Evaluations[0].Performance, ShouldAlmostEqual, 92.5, 0.05)
				So(r.Evaluations[0].Cell.String(), ShouldEqual, "high-high")
				So(r.Evaluations[1].Performance, ShouldAlmostEqual, 57.5, 0.05)
				So(r.Evaluations[1].Cell.String(), ShouldEqual, "low-low")
				So(r.Evaluations[1].Relationship, ShouldEqual, model.RelationshipSecondary)
			})

			Convey("And the consolidation breaks the tie by strategic importance", func() {
				c, err := svc.Consolidated(ctx, period, "emp-1")
				So(err, ShouldBeNil)
				So(c.EvaluatorCount, ShouldEqual, 2)
				So(c.MeanPerformance, ShouldAlmostEqual, 75.0, 0.05)
				So(c.ModalCell.String(), ShouldEqual, "high-high")
			})

			Convey("And a repeated call is served identically", func() {
				again, err := svc.Results(ctx, period, "emp-1")
				So(err, ShouldBeNil)
				So(again, ShouldResemble, r)
			})
		})
	})

	Convey("Given a subject without supervisors", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.PutSubject(ctx, model.Subject{ID: "emp-2", Level: "ops"}), ShouldBeNil)
		saveAndSubmit(ctx, svc, selfKey("emp-2"), opsRatings(4))

		Convey("Then a single self-only result is produced", func() {
			r, err := svc.Results(ctx, period, "emp-2")
			So(err, ShouldBeNil)
			So(len(r.Evaluations), ShouldEqual, 1)
			So(r.Evaluations[0].Performance, ShouldEqual, 75.0)
			So(r.Evaluations[0].Cell.String(), ShouldEqual, "mid-mid")
		})
	})
}

func TestService_Dashboards(t *testing.T) {
	Convey("Given three evaluated subjects", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.PutSubject(ctx, model.Subject{
			ID: "emp-1", Level: "ops",
			Supervisors: []model.Assignment{
				{EvaluatorID: "m1", Relationship: model.RelationshipDirect},
				{EvaluatorID: "m2", Relationship: model.RelationshipSecondary},
			},
		}), ShouldBeNil)
		So(svc.PutSubject(ctx, model.Subject{ID: "emp-2", Level: "ops"}), ShouldBeNil)
		So(svc.PutSubject(ctx, model.Subject{ID: "emp-3", Level: "clerk"}), ShouldBeNil)

		saveAndSubmit(ctx, svc, selfKey("emp-1"), opsRatings(4))
		saveAndSubmit(ctx, svc, supKey("emp-1", "m1"), opsRatings(5))
		saveAndSubmit(ctx, svc, supKey("emp-1", "m2"), opsRatings(3))
		saveAndSubmit(ctx, svc, selfKey("emp-2"), opsRatings(5))
		saveAndSubmit(ctx, svc, selfKey("emp-3"), map[string]int{"c1": 5, "c2": 5})

		Convey("When recomputing the period", func() {
			n, err := svc.RecomputePeriod(ctx, period)

			Convey("Then every subject is processed", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When reading the leaderboard", func() {
			top, err := svc.TopN(ctx, period, 50)

			Convey("Then subjects are ranked by headline performance", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Rank, ShouldEqual, 1)
				So(top[0].SubjectID, ShouldEqual, "emp-2")
				So(top[1].SubjectID, ShouldEqual, "emp-3")
				So(top[2].SubjectID, ShouldEqual, "emp-1")
				So(top[2].Rank, ShouldEqual, 3)
			})

			Convey("And a single row can be looked up", func() {
				e, err := svc.Rank(ctx, period, "emp-1")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 3)
				So(e.Cell.String(), ShouldEqual, "high-high")
			})

			Convey("And an invalid limit is refused", func() {
				_, err := svc.TopN(ctx, period, 0)
				So(err, ShouldWrap, repository.ErrInvalidLimit)
			})
		})

		Convey("When building the nine-box grid", func() {
			g := svc.Grid(ctx, period)

			Convey("Then subjects without potential are excluded", func() {
				So(g.Total(), ShouldEqual, 2)
				So(g.Count(ninebox.Key{Performance: ninebox.High, Potential: ninebox.High}), ShouldEqual, 2)
				So(g.Excluded(), ShouldResemble, []string{"emp-3"})
			})
		})

		Convey("When a subject moves to a level its answers do not cover", func() {
			So(svc.PutSubject(ctx, model.Subject{ID: "emp-2", Level: "clerk"}), ShouldBeNil)

			Convey("Then its results are no longer available", func() {
				_, err := svc.Results(ctx, period, "emp-2")
				So(err, ShouldWrap, scoring.ErrInsufficientData)
			})

			Convey("And it leaves the leaderboard and the grid", func() {
				_, err := svc.Rank(ctx, period, "emp-2")
				So(err, ShouldWrap, repository.ErrNotFound)

				top, err := svc.TopN(ctx, period, 50)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].SubjectID, ShouldEqual, "emp-3")

				g := svc.Grid(ctx, period)
				So(g.Total(), ShouldEqual, 1)
				So(g.Excluded(), ShouldResemble, []string{"emp-3"})
			})
		})
	})
}

func TestService_Workers(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Shutdown(ctx) }()

		So(svc.PutSubject(ctx, model.Subject{ID: "emp-1", Level: "ops"}), ShouldBeNil)

		Convey("When a submission is made", func() {
			saveAndSubmit(ctx, svc, selfKey("emp-1"), opsRatings(5))

			Convey("Then a worker ranks the subject", func() {
				var (
					e   repository.Entry
					err error
				)
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					if e, err = svc.Rank(ctx, period, "emp-1"); err == nil {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(err, ShouldBeNil)
				So(e.Performance, ShouldEqual, 100.0)
			})
		})
	})
}
