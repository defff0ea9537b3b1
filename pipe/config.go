package pipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nf/ic/intcode"
)

// Config describes a pipeline of machines.
//
//	program: amp.txt
//	topology: loop
//	seed: [0]
//	stages:
//	  - {name: A, inputs: [9]}
//	  - {name: B, inputs: [8]}
//
// A stage may name its own program file or give its code inline;
// otherwise it runs the pipeline's program.
type Config struct {
	Program  string        `yaml:"program"`
	Code     string        `yaml:"code"`
	Topology string        `yaml:"topology"`
	Seed     []int64       `yaml:"seed"`
	Stages   []StageConfig `yaml:"stages"`

	dir string
}

// StageConfig describes one stage of a pipeline.
type StageConfig struct {
	Name    string  `yaml:"name"`
	Program string  `yaml:"program"`
	Code    string  `yaml:"code"`
	Inputs  []int64 `yaml:"inputs"`
}

// Topologies.
const (
	TopologyChain = "chain"
	TopologyLoop  = "loop"
)

// LoadConfig reads and validates a pipeline description. Program paths
// are relative to the directory containing the file.
func LoadConfig(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	c.dir = filepath.Dir(name)
	return c, nil
}

// ParseConfig decodes and validates a pipeline description.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.Topology == "" {
		c.Topology = TopologyChain
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Topology {
	case TopologyChain, TopologyLoop:
	default:
		return fmt.Errorf("topology must be %q or %q, not %q", TopologyChain, TopologyLoop, c.Topology)
	}
	if len(c.Stages) == 0 {
		return errors.New("no stages")
	}
	if c.Program != "" && c.Code != "" {
		return errors.New("program and code are mutually exclusive")
	}
	seen := map[string]bool{}
	for i, s := range c.Stages {
		if s.Program != "" && s.Code != "" {
			return fmt.Errorf("stage %d: program and code are mutually exclusive", i)
		}
		if s.Program == "" && s.Code == "" && c.Program == "" && c.Code == "" {
			return fmt.Errorf("stage %d: no program", i)
		}
		name := Stage{Name: s.Name}.name(i)
		if seen[name] {
			return fmt.Errorf("stage %d: duplicate name %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

// Build loads every program named by the configuration and returns the
// stages to run.
func (c *Config) Build() ([]Stage, error) {
	shared, err := c.load(c.Program, c.Code)
	if err != nil {
		return nil, err
	}
	stages := make([]Stage, len(c.Stages))
	for i, s := range c.Stages {
		prog := shared
		if s.Program != "" || s.Code != "" {
			if prog, err = c.load(s.Program, s.Code); err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
		}
		stages[i] = Stage{Name: s.Name, Program: prog, Inputs: s.Inputs}
	}
	return stages, nil
}

func (c *Config) load(file, code string) ([]int64, error) {
	switch {
	case code != "":
		return intcode.ParseProgram(code)
	case file != "":
		if !filepath.IsAbs(file) {
			file = filepath.Join(c.dir, file)
		}
		return intcode.LoadProgram(file)
	}
	return nil, nil
}

// Run builds and runs the pipeline. A chain returns every value output by
// its last stage; a loop returns the single final value.
func (c *Config) Run(ctx context.Context, opts ...Option) ([]int64, error) {
	stages, err := c.Build()
	if err != nil {
		return nil, err
	}
	if c.Topology == TopologyLoop {
		v, err := RunLoop(ctx, stages, c.Seed, opts...)
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	}
	return RunChain(ctx, stages, c.Seed, opts...)
}
