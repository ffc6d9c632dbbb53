package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-abstract-interp/pkg/cfg"
)

// reportVersion is bumped whenever the serialized layout changes.
const reportVersion = 1

// Report is the portable rendering of an analysis run: per node, the kind,
// the statement texts, and the computed state sequence rendered as text.
// It is what the CLI prints and what gets persisted to disk.
type Report struct {
	Version  int          `json:"version" msgpack:"version"`
	Function string       `json:"function,omitempty" msgpack:"function"`
	Domain   string       `json:"domain" msgpack:"domain"`
	Widening int          `json:"widening" msgpack:"widening"`
	Nodes    []NodeReport `json:"nodes" msgpack:"nodes"`
}

// NodeReport is the rendered result for a single node.
type NodeReport struct {
	ID         string       `json:"id" msgpack:"id"`
	Kind       cfg.NodeKind `json:"kind" msgpack:"kind"`
	Statements []string     `json:"statements,omitempty" msgpack:"statements"`
	States     []string     `json:"states" msgpack:"states"`
}

// BuildReport renders a converged result against its graph. States render
// through fmt, so domains control their own textual form via Stringer.
func BuildReport(graph *cfg.ControlFlowGraph, result *AnalysisResult, function, domainName string, widening int) *Report {
	report := &Report{
		Version:  reportVersion,
		Function: function,
		Domain:   domainName,
		Widening: widening,
	}
	for _, id := range result.NodeIDs() {
		node := graph.Node(id)
		if node == nil {
			continue
		}
		states, _ := result.NodeResult(id)
		nr := NodeReport{ID: id, Kind: node.Kind}
		for _, stmt := range node.Stmts {
			nr.Statements = append(nr.Statements, stmt.String())
		}
		for _, state := range states {
			nr.States = append(nr.States, fmt.Sprintf("%v", state))
		}
		report.Nodes = append(report.Nodes, nr)
	}
	return report
}

// Save persists the report to a writer using msgpack.
func (r *Report) Save(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(r)
}

// LoadReport restores a report from a reader.
func LoadReport(rd io.Reader) (*Report, error) {
	var report Report
	dec := msgpack.NewDecoder(rd)
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if report.Version != reportVersion {
		return nil, fmt.Errorf("unsupported report version %d", report.Version)
	}
	return &report, nil
}

// SaveReportFile writes the report to a file.
func SaveReportFile(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return r.Save(f)
}

// LoadReportFile reads a report from a file.
func LoadReportFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()
	return LoadReport(f)
}
