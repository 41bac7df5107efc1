package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10}),
			WithConstLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)

		Convey("When a collector is touched", func() {
			m.evaluations.Inc()
			m.classifications.WithLabelValues("high-high").Inc()

			Convey("Then it is exposed under the configured names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_evaluations_total"], ShouldBeTrue)
				So(names["test_unit_classifications_total"], ShouldBeTrue)
			})

			Convey("And const labels are attached", func() {
				families, _ := registry.Gather()
				for _, f := range families {
					if f.GetName() != "test_unit_evaluations_total" {
						continue
					}
					labels := f.GetMetric()[0].GetLabel()
					So(labels[0].GetName(), ShouldEqual, "env")
					So(labels[0].GetValue(), ShouldEqual, "test")
				}
			})
		})
	})

	Convey("Given empty options", t, func() {
		m := NewManager(
			WithNamespace(""),
			WithHistogramBuckets(nil),
			WithConstLabels(nil),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("Then defaults are kept", func() {
			So(m.namespace, ShouldEqual, "appraisal")
			So(m.subsystem, ShouldEqual, "engine")
			So(m.histogramBuckets, ShouldResemble, latencyBuckets)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When engine outcomes are recorded", func() {
			before := testutil.ToFloat64(globalManager.evaluations)
			RecordEvaluation()
			RecordEvaluation()
			RecordClassification("mid-high")
			RecordUnclassified()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.evaluations)-before, ShouldEqual, 2.0)
				So(testutil.ToFloat64(globalManager.classifications.WithLabelValues("mid-high")), ShouldBeGreaterThanOrEqualTo, 1.0)
				So(testutil.ToFloat64(globalManager.unclassified), ShouldBeGreaterThanOrEqualTo, 1.0)
			})
		})

		Convey("When gauges are set", func() {
			UpdateQueueSize(7)
			UpdateWorkerCount(3)
			UpdateRepositoryRecords("subjects", 12)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7.0)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 3.0)
				So(testutil.ToFloat64(globalManager.repositoryRecords.WithLabelValues("subjects")), ShouldEqual, 12.0)
			})
		})

		Convey("When every recorder is called", func() {
			So(func() {
				RecordInsufficientData()
				RecordConsolidation()
				RecordEvaluationLatency(1.5)
				RecordCacheHit()
				RecordCacheMiss()
				RecordSubmission("self")
				RecordSubmissionDuplicate()
				RecordRepositoryUpdateLatency(0.2)
				RecordRepositoryQueryLatency(0.1)
				UpdateLeaderboardEntries(4)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.07)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(3)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordHTTPRequest("/stats", "GET", "200")
				RecordHTTPRequestDuration("/stats", "GET", "200", 0.4)
				RecordErrorByComponent("api", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(10)
			}, ShouldNotPanic)

			Convey("Then the registry exposes them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				found := 0
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "appraisal_engine_") {
						found++
					}
				}
				So(found, ShouldBeGreaterThan, 20)
			})
		})
	})
}
