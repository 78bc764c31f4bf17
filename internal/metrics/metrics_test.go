package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	FiguresRendered.WithLabelValues("written").Inc()
	MissingDischarge.WithLabelValues("TEST").Set(4)

	path := filepath.Join(t.TempDir(), "streamplot.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `streamplot_figures_total{outcome="written"}`))
	assert.True(t, strings.Contains(out, `streamplot_missing_discharge_values{site="TEST"} 4`))
}

func TestMissingDischargeGauge(t *testing.T) {
	MissingDischarge.WithLabelValues("GAUGE").Set(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(MissingDischarge.WithLabelValues("GAUGE")))
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
