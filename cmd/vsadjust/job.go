package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vearutop/vsadjust"
)

// job is the TOML job file. Command-line flags override its values.
type job struct {
	Gamma  float64 `toml:"gamma"`
	Range  string  `toml:"range"`
	Planes []int   `toml:"planes"`

	Levels  levelsJob `toml:"levels"`
	Rows    []lineJob `toml:"rows"`
	Columns []lineJob `toml:"columns"`
	Bore    boreJob   `toml:"bore"`
}

type levelsJob struct {
	MinIn      []float64 `toml:"min_in"`
	MinOut     []float64 `toml:"min_out"`
	MaxIn      []float64 `toml:"max_in"`
	MaxOut     []float64 `toml:"max_out"`
	InputDepth int       `toml:"input_depth"`
}

type lineJob struct {
	Line       int     `toml:"line"`
	Adjustment float64 `toml:"adjustment"`
}

type boreJob struct {
	Kind   string             `toml:"kind"`
	Left   []int              `toml:"left"`
	Right  []int              `toml:"right"`
	Top    []int              `toml:"top"`
	Bottom []int              `toml:"bottom"`
	Extra  map[string]float64 `toml:"extra"`
}

func loadJob(path string) (*job, error) {
	j := &job{}
	if path == "" {
		return j, nil
	}
	md, err := toml.DecodeFile(path, j)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("job %s: unknown keys %v", path, undecoded)
	}
	return j, nil
}

func (j *job) config() (vsadjust.Config, error) {
	cfg := vsadjust.DefaultConfig()
	if j.Gamma != 0 {
		cfg.Gamma = j.Gamma
	}
	r, err := vsadjust.ParseColorRange(j.Range)
	if err != nil {
		return cfg, err
	}
	cfg.Range = r
	return cfg, nil
}

func (j *job) lines(rows bool) vsadjust.LineMap {
	src := j.Columns
	if rows {
		src = j.Rows
	}
	out := make(vsadjust.LineMap, 0, len(src))
	for _, l := range src {
		out = append(out, vsadjust.LineAdjustment{Line: l.Line, Adjustment: l.Adjustment})
	}
	return out
}

// parseLines parses "line:adjustment" pairs such as "5:20" or "-1:-12.5".
func parseLines(specs []string) (vsadjust.LineMap, error) {
	out := make(vsadjust.LineMap, 0, len(specs))
	for _, s := range specs {
		line, adj, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("line %q: want line:adjustment", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", s, err)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(adj), 64)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", s, err)
		}
		out = append(out, vsadjust.LineAdjustment{Line: n, Adjustment: a})
	}
	return out, nil
}
