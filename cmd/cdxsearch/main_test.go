package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const tableCSV = "Tumor Type,Test,Gene mutations,Therapy\n" +
	"Non-small cell lung cancer,FoundationOne CDx,NTRK1/2/3 fusions,ROZLYTREK\n" +
	"Solid tumors,FoundationOne CDx,NTRK1/2/3 fusions,VITRAKVI\n" +
	"Breast cancer,therascreen PIK3CA,PIK3CA mutations,PIQRAY\n"

// run executes the app against a temp table and returns stdout, stderr and
// the exit code passed to the exit handler (0 when none).
func run(t *testing.T, args ...string) (string, string, int, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Table_Data.csv")
	require.NoError(t, os.WriteFile(path, []byte(tableCSV), 0o644))

	var stdout, stderr bytes.Buffer
	exitCode := 0

	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if coder, ok := err.(cli.ExitCoder); ok {
			exitCode = coder.ExitCode()
		}
	}

	full := append([]string{"cdxsearch", "--local-path", path}, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), exitCode, err
}

func TestSearchCommand_Table(t *testing.T) {
	t.Setenv("DATA_REMOTE_URL", "")
	out, _, code, err := run(t, "--gene-mutations", "ntrk", "--tumor-type", "LUNG")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Contains(t, out, "Tumor Type")
	assert.Contains(t, out, "ROZLYTREK")
	assert.NotContains(t, out, "VITRAKVI")
	assert.Contains(t, out, "1 of 3 rows match")
}

func TestSearchCommand_NoMatches(t *testing.T) {
	t.Setenv("DATA_REMOTE_URL", "")
	out, _, _, err := run(t, "--therapy", "nothing")
	require.NoError(t, err)
	assert.Equal(t, "0 of 3 rows match\n", out)
}

func TestSearchCommand_JSON(t *testing.T) {
	t.Setenv("DATA_REMOTE_URL", "")
	out, _, _, err := run(t, "--json", "--therapy", "piqray")
	require.NoError(t, err)

	var result struct {
		Columns     []string            `json:"columns"`
		Results     []map[string]string `json:"results"`
		MatchedRows int                 `json:"matched_rows"`
		TotalRows   int                 `json:"total_rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"Tumor Type", "Test", "Gene mutations", "Therapy"}, result.Columns)
	assert.Equal(t, 1, result.MatchedRows)
	assert.Equal(t, 3, result.TotalRows)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "PIQRAY", result.Results[0]["Therapy"])
}

func TestSearchCommand_LoadFailure(t *testing.T) {
	t.Setenv("DATA_REMOTE_URL", "")
	var stdout, stderr bytes.Buffer
	exitCode := 0

	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if coder, ok := err.(cli.ExitCoder); ok {
			exitCode = coder.ExitCode()
		}
	}

	missing := filepath.Join(t.TempDir(), "missing.csv")
	err := app.Run([]string{"cdxsearch", "--local-path", missing})
	require.Error(t, err)
	assert.Equal(t, exitLoadFailed, exitCode)
	assert.Contains(t, err.Error(), "SRC001")
	assert.Empty(t, stdout.String())
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	t.Setenv("DATA_REMOTE_URL", "")
	_, _, _, err := run(t, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestTermFlags(t *testing.T) {
	app := newApp()
	names := make(map[string]bool)
	for _, f := range app.Flags {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	for _, want := range []string{"tumor-type", "test", "gene-mutations", "therapy", "drug-company", "approval-year"} {
		assert.True(t, names[want], "missing flag --%s", want)
	}
	assert.Equal(t, "tumor-type", termFlag("tumor_type"))
}
