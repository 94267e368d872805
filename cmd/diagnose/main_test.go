package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLeakFromStdin(t *testing.T) {
	out, err := run(t, `{"pressure_value":7,"pressure_baseline":10,"flow_rate":140,"flow_baseline":100,"reservoir_drop_rate":20,"expected_drop_rate":10,"complaints_count":2,"past_leak_history":false,"tail_end_pressure":1,"is_critical_zone":false}`, "leak")

	require.NoError(t, err)
	var result entities.LeakResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, entities.LeakageHigh, result.LeakageStatus)
	assert.InDelta(t, 0.9, result.LeakScore, 1e-9)
}

func TestQualityFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pH":9.2,"turbidity":3,"tds":300,"chloride":100,"chlorine":0.3,"coliform_present":false,"nitrate":10,"fluoride":1,"iron":0.1}`), 0o644))

	out, err := run(t, "", "quality", "--file", path)

	require.NoError(t, err)
	var result entities.WaterQualityResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, entities.QualityUnsafe, result.Status)
	assert.Equal(t, []string{"pH (9.2)", "Turbidity (3 NTU)"}, result.FlaggedParameters)
}

func TestOtherScorers(t *testing.T) {
	out, err := run(t, `{"pump_hours_today":5,"pump_hours_previous":5,"tank_level_change":"Increase","pressure_level":"Normal","flow_rate_level":"Normal","complaints_count":0}`, "daily")
	require.NoError(t, err)
	assert.Contains(t, out, diagnostics.DailyMessageGreen)

	out, err = run(t, `{"pump_age_years":4,"avg_running_hours":7,"breakdown_count_90_days":1,"repeat_issue":false,"flow_trend":"Stable"}`, "maintenance")
	require.NoError(t, err)
	assert.Contains(t, out, `"severity": "Yellow"`)

	out, err = run(t, `{}`, "health")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 85`)
}

func TestScoreErrors(t *testing.T) {
	_, err := run(t, `{"complaints_count":-1}`, "leak")
	assert.ErrorIs(t, err, diagnostics.ErrInvalidInput)

	_, err = run(t, `not json`, "maintenance")
	assert.ErrorContains(t, err, "failed to decode reading")

	_, err = run(t, "", "quality", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = run(t, "", "export", "--kind", "rainfall")
	assert.ErrorContains(t, err, "unknown kind")
}
