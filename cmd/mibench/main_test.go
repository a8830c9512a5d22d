package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibench/mibench/dataset"
	"github.com/mibench/mibench/internal/edftest"
	"github.com/mibench/mibench/pkg/errors"
)

var reportLine = regexp.MustCompile(`^(LinearDiscriminantAnalysis|LogisticRegression|RandomForestClassifier): accuracy [0-9.e-]+, std: [0-9.e-]+$`)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so each test starts from an
// unparsed command line.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeSubject writes execution run 3 and imagery run 4 of subject 1: 80 s of
// noise on four channels with twelve alternating T1/T2 cues 6 s apart.
func writeSubject(t *testing.T, root string) {
	t.Helper()
	labels := []string{"C3..", "Cz..", "C4..", "Fc5."}
	for _, run := range []int{3, 4} {
		var annotations []edftest.Annotation
		for k := 0; k < 12; k++ {
			desc := "T1"
			if k%2 == 1 {
				desc = "T2"
			}
			annotations = append(annotations,
				edftest.Annotation{Onset: float64(6 * k), Duration: 2, Description: "T0"},
				edftest.Annotation{Onset: float64(6*k + 2), Duration: 4, Description: desc},
			)
		}
		edftest.WriteFile(t, dataset.EEGBCIPath(root, 1, run), labels, 10,
			edftest.Noise(len(labels), 800, 300, uint64(run)), annotations)
	}
}

func TestCompareCmd_Usage(t *testing.T) {
	for _, args := range [][]string{{"compare"}, {"compare", "a.yaml", "b.yaml"}} {
		_, stderr, err := execute(t, args...)
		require.Error(t, err)
		assert.Equal(t, errUsage.Error(), err.Error())
		assert.NotContains(t, stderr, "Error:", "main reports the error once")
	}
}

func TestCompareCmd(t *testing.T) {
	root := t.TempDir()
	writeSubject(t, root)
	path := writeConfig(t, fmt.Sprintf(`subjects: [1]
action_tasks: [3]
imaginary_tasks: [4]
data_dir: %s
cv: {n_splits: 3, test_size: 0.4, seed: 42}
workers: 2
logging: {level: debug, backend: zerolog}
`, root))

	stdout, stderr, err := execute(t, "compare", path)
	require.NoError(t, err, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 8, stdout)
	assert.Equal(t, "CSP features", lines[0])
	assert.Equal(t, "SPoC features", lines[4])
	for _, l := range append(lines[1:4:4], lines[5:]...) {
		assert.Regexp(t, reportLine, l)
	}
	assert.True(t, strings.HasPrefix(lines[1], "LinearDiscriminantAnalysis"))
	assert.True(t, strings.HasPrefix(lines[3], "RandomForestClassifier"))

	assert.Contains(t, stderr, `"message":"epochs ready"`)
	// two runs, twelve cues each
	assert.Contains(t, stderr, `"data.samples":24`)
	// debug records prove the file's logging section was applied
	assert.Contains(t, stderr, `"message":"run loaded"`)
	assert.Contains(t, stderr, `"level":"debug"`)
}

func TestCompareCmd_LoggingFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "subjects: [1]\naction_tasks: [3]\nimaginary_tasks: [4]\n"+
		"data_dir: "+filepath.Join(dir, "absent")+"\nlogging: {level: debug, backend: xml}\n")

	_, _, err := execute(t, "compare", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log backend")

	// flags win over the file
	_, _, err = execute(t, "compare", path, "--log-format", "slog", "--verbose")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "unknown log backend")
	assert.Contains(t, err.Error(), "S001R03.edf")
}

func TestCompareCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subjects: [1]\naction_tasks: [3, 7]\nimaginary_tasks: [4]\n"), 0o644))

	_, _, err := execute(t, "compare", path)
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "imaginary_tasks", verr.ParamName)
}

func TestCompareCmd_MissingRecordings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "subjects: [1]\naction_tasks: [3]\nimaginary_tasks: [4]\ndata_dir: " + filepath.Join(dir, "absent") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, stderr, err := execute(t, "compare", path)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "S001R03.edf"), err.Error())
	assert.NotContains(t, stderr, "Error:")
}

func TestSyntheticCmd(t *testing.T) {
	stdout, stderr, err := execute(t, "synthetic", "--trials", "30", "--channels", "6", "--samples", "80",
		"--workers", "2", "--log-format", "zerolog")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "CSP features", lines[0])
	assert.Equal(t, "SPoC features", lines[4])
	for _, l := range append(lines[1:4:4], lines[5:]...) {
		assert.Regexp(t, reportLine, l)
	}
	assert.Contains(t, stderr, `"message":"comparison finished"`)
}

func TestRootCmd_UnknownLogFormat(t *testing.T) {
	_, _, err := execute(t, "synthetic", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log backend")
}
