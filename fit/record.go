package fit

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/table"
)

// Params holds what one step learned while fitting.
// Statistic and Categories are held as text and typed by Type, so they survive a JSON round trip unchanged.
type Params struct {
	Step   string `json:"step"`
	Kind   string `json:"kind"`
	Column string `json:"column,omitempty"`
	// Learned is false if the step was fitted on zero rows and so learned nothing
	Learned bool `json:"learned"`
	// name of the statistic, e.g. mean, median, mode
	Statistic string `json:"statistic,omitempty"`
	// column type of Value and Categories
	Type       string   `json:"type,omitempty"`
	Value      *string  `json:"value,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Center     *float64 `json:"center,omitempty"`
	Scale      *float64 `json:"scale,omitempty"`
}

// StatisticValue returns the learned statistic, typed by Type
func (p Params) StatisticValue() (any, error) {
	if p.Value == nil {
		return nil, fmt.Errorf("step '%s' has no learned value", p.Step)
	}
	return table.ParseValue(*p.Value, p.Type)
}

// CategoryValues returns the learned categories, typed by Type, in code order
func (p Params) CategoryValues() ([]any, error) {
	res := make([]any, len(p.Categories))
	for i, c := range p.Categories {
		v, err := table.ParseValue(c, p.Type)
		if err != nil {
			return nil, fmt.Errorf("step '%s' category %d: %w", p.Step, i, err)
		}
		res[i] = v
	}
	return res, nil
}

func (p Params) clone() Params {
	res := p
	res.Categories = slices.Clone(p.Categories)
	if p.Value != nil {
		v := *p.Value
		res.Value = &v
	}
	if p.Center != nil {
		v := *p.Center
		res.Center = &v
	}
	if p.Scale != nil {
		v := *p.Scale
		res.Scale = &v
	}
	return res
}

// Record is the immutable set of parameters learned by a fit, one entry per step in step order
type Record struct {
	steps []Params
}

func NewRecord(steps ...Params) *Record {
	r := &Record{steps: make([]Params, len(steps))}
	for i, s := range steps {
		r.steps[i] = s.clone()
	}
	return r
}

// Steps returns a copy of the per-step parameters
func (r *Record) Steps() []Params {
	res := make([]Params, len(r.steps))
	for i, s := range r.steps {
		res[i] = s.clone()
	}
	return res
}

func (r *Record) Len() int {
	return len(r.steps)
}

func (r *Record) Step(name string) (Params, bool) {
	for _, s := range r.steps {
		if s.Step == name {
			return s.clone(), true
		}
	}
	return Params{}, false
}

// Values flattens the record into named values, e.g. age_mean -> 25.0, plan_codes -> {"a": 0, "b": 1}.
// Steps which learned nothing are omitted.
func (r *Record) Values() map[string]any {
	res := make(map[string]any)
	for _, s := range r.steps {
		if !s.Learned {
			continue
		}
		if s.Value != nil {
			if v, err := s.StatisticValue(); err == nil {
				res[fmt.Sprintf("%s_%s", s.Column, s.Statistic)] = v
			}
		}
		if s.Categories != nil {
			codes := make(map[string]int64, len(s.Categories))
			for i, c := range s.Categories {
				codes[c] = int64(i)
			}
			res[fmt.Sprintf("%s_codes", s.Column)] = codes
		}
		if s.Center != nil {
			res[fmt.Sprintf("%s_center", s.Column)] = *s.Center
		}
		if s.Scale != nil {
			res[fmt.Sprintf("%s_scale", s.Column)] = *s.Scale
		}
	}
	return res
}

type recordJSON struct {
	Version int      `json:"version"`
	Steps   []Params `json:"steps"`
}

func (r *Record) MarshalJSON() ([]byte, error) {
	steps := r.steps
	if steps == nil {
		steps = []Params{}
	}
	return json.Marshal(recordJSON{Version: constants.FitRecordVersion, Steps: steps})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Version != constants.FitRecordVersion {
		return fmt.Errorf("unsupported fit record version %d", raw.Version)
	}
	r.steps = raw.Steps
	return nil
}

// Load reads a fit record written by the dataset writer
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fit record %s: %w", path, err)
	}
	r := &Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse fit record %s: %w", path, err)
	}
	return r, nil
}
