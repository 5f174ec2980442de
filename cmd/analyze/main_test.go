package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/mazegame/game/engine"
)

const presetJSON = `{
  "name": "tiny",
  "description": "Tiny test maze",
  "rows": 9,
  "cols": 9,
  "messages": {
    "welcome": "Go!",
    "moved": "Moved.",
    "blocked": "Wall.",
    "victory": "Done in %d moves",
    "already_won": "Already won.",
    "regenerated": "New maze."
  }
}`

func writePreset(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}
	return path
}

func TestSampleMazes(t *testing.T) {
	stats, err := sampleMazes(9, 9, 3, 42)
	if err != nil {
		t.Fatalf("sampleMazes failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(stats))
	}

	// A perfect 9x9 maze opens 16 rooms joined by 15 passages
	for i, st := range stats {
		if st.OpenCells != 31 {
			t.Errorf("Sample %d: expected 31 open cells, got %d", i, st.OpenCells)
		}
		if st.SolutionLength <= 0 {
			t.Errorf("Sample %d: expected a positive solution length", i)
		}
	}
}

func TestSampleMazes_Deterministic(t *testing.T) {
	a, err := sampleMazes(11, 11, 2, 7)
	if err != nil {
		t.Fatalf("sampleMazes failed: %v", err)
	}
	b, err := sampleMazes(11, 11, 2, 7)
	if err != nil {
		t.Fatalf("sampleMazes failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Sample %d differs for the same seed: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSampleMazes_InvalidSize(t *testing.T) {
	if _, err := sampleMazes(2, 2, 1, 1); err == nil {
		t.Error("Expected error for a maze below the minimum size")
	}
}

func TestSummarize(t *testing.T) {
	stats := []engine.Stats{
		{OpenCells: 31, DeadEnds: 4, Junctions: 2, SolutionLength: 10},
		{OpenCells: 31, DeadEnds: 6, Junctions: 4, SolutionLength: 20},
	}

	s := summarize(stats)
	if s.Samples != 2 {
		t.Errorf("Expected 2 samples, got %d", s.Samples)
	}
	if s.AvgDeadEnds != 5 {
		t.Errorf("Expected 5 average dead ends, got %.1f", s.AvgDeadEnds)
	}
	if s.AvgJunctions != 3 {
		t.Errorf("Expected 3 average junctions, got %.1f", s.AvgJunctions)
	}
	if s.MinSolution != 10 || s.MaxSolution != 20 {
		t.Errorf("Expected solution range 10-20, got %d-%d", s.MinSolution, s.MaxSolution)
	}
	if s.AvgSolution != 15 {
		t.Errorf("Expected 15 average solution, got %.1f", s.AvgSolution)
	}

	if empty := summarize(nil); empty.Samples != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}
}

func TestAnalyzeConfig(t *testing.T) {
	path := writePreset(t, t.TempDir(), "tiny.json", presetJSON)

	var out bytes.Buffer
	if err := analyzeConfig(&out, path, 2, 1); err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}

	for _, want := range []string{"Name: tiny", "Size: 9 x 9", "Samples: 2", "Open cells: 31", "perfect mazes"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestAnalyzeConfig_PinnedSeed(t *testing.T) {
	pinned := strings.Replace(presetJSON, `"cols": 9,`, `"cols": 9, "seed": 99,`, 1)
	path := writePreset(t, t.TempDir(), "pinned.json", pinned)

	var out bytes.Buffer
	if err := analyzeConfig(&out, path, 5, 1); err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}
	if !strings.Contains(out.String(), "Seed: 99 (pinned)") {
		t.Errorf("Expected pinned seed in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Samples: 1") {
		t.Errorf("Pinned preset should be sampled once:\n%s", out.String())
	}
}

func TestAnalyzeConfig_MissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := analyzeConfig(&out, filepath.Join(t.TempDir(), "missing.json"), 1, 1); err == nil {
		t.Error("Expected error for missing preset")
	}
}

func TestCommand_ScansConfigDir(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "a.json", presetJSON)
	writePreset(t, dir, "b.json", `{"name": "broken"`)

	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", dir, "--samples", "1"})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(out.String(), "=== Analyzing a.json ===") {
		t.Errorf("Expected a.json to be analyzed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "=== Analyzing b.json ===\nError:") {
		t.Errorf("Expected b.json to report an error:\n%s", out.String())
	}
}

func TestCommand_NoPresets(t *testing.T) {
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", t.TempDir()})
	if err == nil {
		t.Error("Expected error when no presets are found")
	}
}
