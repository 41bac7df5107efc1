package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	service "github.com/okian/appraisal/internal/app"
	"github.com/okian/appraisal/internal/config"
	"github.com/okian/appraisal/internal/domain/consolidate"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/scoring"
	"github.com/okian/appraisal/internal/domain/types"
)

// scoreFile is the YAML layout read by the score command.
type scoreFile struct {
	Level       string             `koanf:"level"`
	Period      string             `koanf:"period"`
	Subject     string             `koanf:"subject"`
	Self        map[string]int     `koanf:"self"`
	Supervisors []supervisorRating `koanf:"supervisors"`
}

type supervisorRating struct {
	ID           string             `koanf:"id"`
	Relationship model.Relationship `koanf:"relationship"`
	Ratings      map[string]int     `koanf:"ratings"`
}

// scoreReport is what the score command prints.
type scoreReport struct {
	Evaluations  []model.FinalResult       `json:"evaluations"`
	Consolidated *model.ConsolidatedResult `json:"consolidated,omitempty"`
}

func scoreCmd() *cobra.Command {
	var (
		instrumentsPath string
		level           string
	)

	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score a YAML file of responses without running the service",
		Long: `Score reads one subject's self ratings and any number of supervisor
ratings from a YAML file and prints the per-supervisor results and their
consolidation as JSON. Evaluator weights come from the usual configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if instrumentsPath == "" {
				instrumentsPath = cfg.InstrumentsFile
			}
			catalog, err := loadCatalog(instrumentsPath)
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), cmd.OutOrStdout(), catalog, cfg.EvaluatorWeights(), args[0], level)
		},
	}

	cmd.Flags().StringVar(&instrumentsPath, "instruments", "", "YAML instrument catalog (default: bundled catalog)")
	cmd.Flags().StringVar(&level, "level", "", "job level, overrides the file's level")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify PERFORMANCE POTENTIAL",
		Short: "Place a performance/potential pair in the nine-box grid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			perf, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("performance: %w", err)
			}
			pot, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("potential: %w", err)
			}
			c, err := types.Classify(perf, pot)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c)
		},
	}
}

func loadCatalog(path string) (*instrument.Catalog, error) {
	if path == "" {
		return instrument.Default()
	}
	return instrument.LoadFile(path)
}

func readScoreFile(path string) (scoreFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return scoreFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	var f scoreFile
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return scoreFile{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if f.Period == "" {
		f.Period = "offline"
	}
	if f.Subject == "" {
		f.Subject = "subject"
	}
	return f, nil
}

func runScore(_ context.Context, w io.Writer, catalog *instrument.Catalog, weights model.EvaluatorWeights,
	path, level string,
) error {
	f, err := readScoreFile(path)
	if err != nil {
		return err
	}
	if level != "" {
		f.Level = level
	}
	in, err := catalog.Lookup(f.Level)
	if err != nil {
		return err
	}
	engine, err := scoring.NewEngine(scoring.WithEvaluatorWeights(weights))
	if err != nil {
		return err
	}

	self := &model.ResponseSet{
		ResponseKey: model.ResponseKey{SubjectID: f.Subject, PeriodID: f.Period, Role: model.RoleSelf},
		Ratings:     f.Self,
		Submitted:   true,
	}
	if err := checkRatings(in, self); err != nil {
		return err
	}

	supervisors := make([]consolidate.Supervisor, 0, len(f.Supervisors))
	for _, s := range f.Supervisors {
		sup := &model.ResponseSet{
			ResponseKey: model.ResponseKey{
				SubjectID:   f.Subject,
				PeriodID:    f.Period,
				Role:        model.RoleSupervisor,
				EvaluatorID: s.ID,
			},
			Relationship: s.Relationship,
			Ratings:      s.Ratings,
			Submitted:    true,
		}
		if err := sup.Validate(); err != nil {
			return err
		}
		if err := checkRatings(in, sup); err != nil {
			return err
		}
		supervisors = append(supervisors, consolidate.Supervisor{
			Assignment: model.Assignment{EvaluatorID: s.ID, Relationship: sup.Relationship},
			Set:        sup,
		})
	}

	a, err := consolidate.Appraise(engine, in, f.Subject, f.Period, self, supervisors)
	if err != nil {
		return err
	}
	return writeJSON(w, scoreReport{Evaluations: a.Evaluations, Consolidated: a.Consolidated})
}

// checkRatings rejects items the instrument does not have and ratings off
// its scale.
func checkRatings(in instrument.Instrument, rs *model.ResponseSet) error {
	for _, id := range slices.Sorted(maps.Keys(rs.Ratings)) {
		v := rs.Ratings[id]
		if !in.HasItem(id) {
			return fmt.Errorf("%s: %w: %s", rs.ResponseKey, service.ErrUnknownItem, id)
		}
		if !in.Scale.Contains(v) {
			return fmt.Errorf("%s: %w: %s=%d not in [%d,%d]",
				rs.ResponseKey, service.ErrRatingOutOfScale, id, v, in.Scale.Min, in.Scale.Max)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
