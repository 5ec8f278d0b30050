package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "contestlens/internal/errors"
	"contestlens/internal/exporter"
	"contestlens/internal/shared/testutil"
)

func writeHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(testutil.ContestHistoryCSV), 0o644))
	return path
}

func TestRunPrintsAggregateTable(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-file", writeHistory(t)}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "history.csv: 4 records, 3 sports")
	assert.Contains(t, out, "1 without a contest date")

	lines := strings.Split(out, "\n")
	var nfl string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "NFL") {
			nfl = line
		}
	}
	require.NotEmpty(t, nfl)
	assert.Regexp(t, `NFL\s+2\s+13\.00\s+27\.00\s+14\.00`, nfl)
	assert.NotContains(t, out, "match the filters")
}

func TestRunWithFilters(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-file", writeHistory(t), "-sport", "NFL", "-q", "sunday"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "1 of 4 records match the filters")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "contestlens v")
}

func TestRunExports(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		kind  string
		check func(t *testing.T, path string)
	}{
		{
			name: "chart csv",
			file: "out/chart.csv",
			kind: "chart",
			check: func(t *testing.T, path string) {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Contains(t, string(data), "Sport,Entries,Amount Spent,Amount Won,Total Winnings")
			},
		},
		{
			name: "records workbook",
			file: "records.xlsx",
			kind: "records",
			check: func(t *testing.T, path string) {
				f, err := excelize.OpenFile(path)
				require.NoError(t, err)
				defer f.Close()
				assert.Equal(t, []string{exporter.ChartSheet, exporter.RecordsSheet}, f.GetSheetList())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), tt.file)
			var stdout, stderr bytes.Buffer

			err := run(context.Background(), []string{"-file", writeHistory(t), "-out", out, "-kind", tt.kind}, &stdout, &stderr)
			require.NoError(t, err)
			assert.Contains(t, stdout.String(), "Wrote "+tt.kind+" export")
			tt.check(t, out)
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     func(t *testing.T) []string
		wantType apierrors.ErrorType
		usage    bool
	}{
		{
			name:  "missing file flag",
			args:  func(t *testing.T) []string { return nil },
			usage: true,
		},
		{
			name:  "unknown flag",
			args:  func(t *testing.T) []string { return []string{"-verbose"} },
			usage: true,
		},
		{
			name:     "file not found",
			args:     func(t *testing.T) []string { return []string{"-file", filepath.Join(t.TempDir(), "nope.csv")} },
			wantType: apierrors.ErrTypeParsing,
		},
		{
			name:     "input over size limit",
			args:     func(t *testing.T) []string { return []string{"-file", writeHistory(t), "-max-bytes", "10"} },
			wantType: apierrors.ErrTypeParsing,
		},
		{
			name:     "bad timezone",
			args:     func(t *testing.T) []string { return []string{"-file", writeHistory(t), "-tz", "Nowhere/City"} },
			wantType: apierrors.ErrTypeConfig,
		},
		{
			name: "unsupported export format",
			args: func(t *testing.T) []string {
				return []string{"-file", writeHistory(t), "-out", filepath.Join(t.TempDir(), "chart.pdf")}
			},
			wantType: apierrors.ErrTypeExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args(t), &stdout, &stderr)
			require.Error(t, err)

			if tt.usage {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			var appErr *apierrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
		})
	}
}
