package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir string, ops int, extra string) string {
	t.Helper()

	content := `
num_levels: 1
num_nodes_at_level: [3]
num_ops_at_level: [` + strconv.Itoa(ops) + `]
channels_start: 2
num_cells: 3
dataset: synthetic
batch_size: 25
epochs: 1
print_step_frequency: 10
checkpoint_path: ` + filepath.Join(dir, "checkpoints") + `
log_dir: ` + filepath.Join(dir, "logs") + "\n" + extra

	path := filepath.Join(dir, "search.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	if code := run(context.Background(), []string{"-config", writeConfig(t, dir, 8, "")}, &stderr); code != 0 {
		t.Fatalf("exit code %d:\n%s", code, stderr.String())
	}

	out := stderr.String()
	for _, s := range []string{"Final best Prec@1", "Final architecture", "level 0 group 0"} {
		if !strings.Contains(out, s) {
			t.Errorf("output does not contain %q", s)
		}
	}

	dbs, _ := filepath.Glob(filepath.Join(dir, "logs", "synthetic", "*", "series.db"))
	logs, _ := filepath.Glob(filepath.Join(dir, "logs", "synthetic", "*", "search.log"))
	if len(dbs) != 1 || len(logs) != 1 {
		t.Errorf("found %d series databases and %d log files, expected 1 of each", len(dbs), len(logs))
	}
}

func TestRunInterrupted(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := run(ctx, []string{"-config", writeConfig(t, dir, 8, "")}, &stderr); code != 0 {
		t.Fatalf("exit code %d after interrupt:\n%s", code, stderr.String())
	}

	if !strings.Contains(stderr.String(), "Search interrupted") || !strings.Contains(stderr.String(), "Final architecture") {
		t.Errorf("interrupt not reported:\n%s", stderr.String())
	}
}

func TestRunResume(t *testing.T) {
	for _, saveWeights := range []bool{true, false} {
		t.Run("save_weights="+strconv.FormatBool(saveWeights), func(t *testing.T) {
			dir := t.TempDir()
			config := writeConfig(t, dir, 8, "save_weights: "+strconv.FormatBool(saveWeights)+"\n")

			var first bytes.Buffer
			if code := run(context.Background(), []string{"-config", config}, &first); code != 0 {
				t.Fatalf("exit code %d:\n%s", code, first.String())
			}

			roots, _ := filepath.Glob(filepath.Join(dir, "checkpoints", "*"))
			if len(roots) != 1 {
				t.Fatalf("found %d checkpoint directories, expected 1", len(roots))
			}

			var second bytes.Buffer
			if code := run(context.Background(), []string{"-config", config, "-resume", roots[0]}, &second); code != 0 {
				t.Fatalf("exit code %d on resume:\n%s", code, second.String())
			}

			if restored := strings.Contains(second.String(), "Restored weights"); restored != saveWeights {
				t.Errorf("weights restored: %v, expected %v:\n%s", restored, saveWeights, second.String())
			}
		})
	}
}

func TestRunBadConfig(t *testing.T) {
	cases := []struct {
		name string
		args func(t *testing.T, dir string) []string
	}{
		{"unknown key", func(t *testing.T, dir string) []string {
			return []string{"-config", writeConfig(t, dir, 8, "weights_learning_rate: 0.1\n")}
		}},
		{"missing file", func(t *testing.T, dir string) []string {
			return []string{"-config", filepath.Join(dir, "missing.yaml")}
		}},
		{"ops at level 0", func(t *testing.T, dir string) []string {
			return []string{"-config", writeConfig(t, dir, 7, "")}
		}},
		{"primitive", func(t *testing.T, dir string) []string {
			return []string{"-config", writeConfig(t, dir, 2, "primitives: [none, conv_7x7]\n")}
		}},
		{"resume", func(t *testing.T, dir string) []string {
			return []string{"-config", writeConfig(t, dir, 8, ""), "-resume", filepath.Join(dir, "nothing")}
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()

			var stderr bytes.Buffer
			if code := run(context.Background(), c.args(t, dir), &stderr); code != 1 {
				t.Errorf("exit code %d, expected 1:\n%s", code, stderr.String())
			}

			if _, err := os.Stat(filepath.Join(dir, "logs")); err == nil {
				t.Error("log directory created for a search that never started")
			}
		})
	}
}

func TestRunBadFlag(t *testing.T) {
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-epochs", "3"}, &stderr); code != 2 {
		t.Errorf("exit code %d, expected 2", code)
	}
}
