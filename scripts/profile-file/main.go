// profile-file profiles a CSV or Excel file offline and prints the inferred
// column types as YAML (default) or JSON.
//
// Conversions can be applied before printing, in order:
//
//	go run ./scripts/profile-file -convert qty=Integer -convert price=Decimal orders.csv
//
// Usage: go run ./scripts/profile-file [flags] <file>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/ingest"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/services"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/workerpool"
)

// Report is the printed profile of one file.
type Report struct {
	File        string           `yaml:"file" json:"file"`
	Rows        int              `yaml:"rows" json:"rows"`
	Columns     int              `yaml:"columns" json:"columns"`
	Nulls       int64            `yaml:"nulls" json:"nulls"`
	MemoryBytes int64            `yaml:"memory_bytes" json:"memory_bytes"`
	Schema      []ColumnReport   `yaml:"schema" json:"schema"`
	Conversions []string         `yaml:"conversions,omitempty" json:"conversions,omitempty"`
	Preview     []map[string]any `yaml:"preview,omitempty" json:"preview,omitempty"`
}

// ColumnReport describes one profiled column.
type ColumnReport struct {
	Name           string   `yaml:"name" json:"name"`
	SemanticType   string   `yaml:"semantic_type" json:"semantic_type"`
	StorageType    string   `yaml:"storage_type" json:"storage_type"`
	Nulls          int64    `yaml:"nulls" json:"nulls"`
	Uniques        int64    `yaml:"uniques" json:"uniques"`
	AllowedTargets []string `yaml:"allowed_targets" json:"allowed_targets"`
}

type conversionFlags []string

func (c *conversionFlags) String() string { return strings.Join(*c, ",") }
func (c *conversionFlags) Set(v string) error { *c = append(*c, v); return nil }

func main() {
	format := flag.String("format", "yaml", "Output format: yaml or json")
	previewRows := flag.Int("rows", 5, "Number of preview rows to print (0 disables)")
	workers := flag.Int("workers", 8, "Columns profiled concurrently")
	var conversions conversionFlags
	flag.Var(&conversions, "convert", "Column conversion as column=Type (repeatable)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: profile-file [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	report, err := run(flag.Arg(0), *previewRows, *workers, conversions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := write(report, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, previewRows, workers int, conversions []string) (*Report, error) {
	logger := zap.NewNop()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := ingest.NewDecoder(0, logger).Decode(path, f)
	if err != nil {
		return nil, err
	}

	processor := services.NewDatasetProcessor(
		services.NewColumnProfiler(services.DefaultProfilerConfig(), logger),
		services.NewCoercionEngine(logger),
		workerpool.New(workerpool.Config{MaxConcurrent: workers}, logger),
		max(previewRows, 1),
		logger,
	)

	ctx := context.Background()
	ds, err := processor.Process(ctx, raw)
	if err != nil {
		return nil, err
	}

	report := &Report{File: path}
	for _, arg := range conversions {
		column, label, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid conversion %q, expected column=Type", arg)
		}
		target, err := models.ParseSemanticType(label)
		if err != nil {
			return nil, err
		}
		summary, err := processor.Convert(ctx, ds, column, target)
		if err != nil {
			return nil, err
		}
		report.Conversions = append(report.Conversions, summary.Message())
	}

	out := processor.Summarize(ds)
	report.Rows = out.TotalRows
	report.Columns = out.TotalColumns
	report.Nulls = out.TotalNulls
	report.MemoryBytes = out.MemoryUsage
	if previewRows > 0 {
		report.Preview = out.Head
	}
	for _, c := range out.Columns {
		targets := make([]string, len(c.AllowedTargets))
		for i, t := range c.AllowedTargets {
			targets[i] = string(t)
		}
		report.Schema = append(report.Schema, ColumnReport{
			Name:           c.Name,
			SemanticType:   string(c.SemanticType),
			StorageType:    c.StorageType.String(),
			Nulls:          c.NullCount,
			Uniques:        c.UniqueCount,
			AllowedTargets: targets,
		})
	}
	return report, nil
}

func write(report *Report, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return fmt.Errorf("unknown format %q", format)
}
