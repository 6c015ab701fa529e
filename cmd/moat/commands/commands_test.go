package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/moat"
	"github.com/wonny/moat/backend/internal/scheduler"
)

func TestPartialFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "set"}
	addFactorFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--sc", "5", "--ls", "1"}))

	p, err := partialFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, p.SC)
	require.NotNil(t, p.LS)
	assert.Equal(t, 5.0, *p.SC)
	assert.Equal(t, 1.0, *p.LS)
	assert.Nil(t, p.NE)
	assert.Nil(t, p.CIR)
}

func TestPartialFromFlags_Errors(t *testing.T) {
	t.Run("no flags", func(t *testing.T) {
		cmd := &cobra.Command{Use: "set"}
		addFactorFlags(cmd)
		require.NoError(t, cmd.Flags().Parse(nil))

		_, err := partialFromFlags(cmd)
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		cmd := &cobra.Command{Use: "set"}
		addFactorFlags(cmd)
		require.NoError(t, cmd.Flags().Parse([]string{"--dme", "6"}))

		_, err := partialFromFlags(cmd)
		var verr contracts.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "dme", verr.Field)
	})
}

func TestValidateClearArgs(t *testing.T) {
	cmd := &cobra.Command{Use: "clear"}

	assert.NoError(t, validateClearArgs(cmd, []string{"all"}))
	assert.NoError(t, validateClearArgs(cmd, []string{"sector", "Energy"}))
	assert.NoError(t, validateClearArgs(cmd, []string{"ticker", "NVDA"}))

	assert.Error(t, validateClearArgs(cmd, nil))
	assert.Error(t, validateClearArgs(cmd, []string{"all", "extra"}))
	assert.Error(t, validateClearArgs(cmd, []string{"sector"}))
	assert.Error(t, validateClearArgs(cmd, []string{"everything"}))
}

func TestSectorRow(t *testing.T) {
	c := moat.Default().ComputeSector("Information Technology", contracts.FactorRecord{
		SC: 4, NE: 4, IA: 4, CA: 3, ES: 2,
		LS: 3, VCD: 3, DME: 3, ANC: 3, CIR: 3,
	})

	row := sectorRow(c)
	require.Len(t, row, len(sectorColumns))
	assert.Equal(t, "Information Technology", row[0])
	assert.Equal(t, string(c.Tier), row[4])
	assert.Len(t, sectorWidths, len(sectorColumns))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "+100bp", formatBps(100))
	assert.Equal(t, "0bp", formatBps(0))
	assert.Equal(t, "-25bp", formatBps(-25))

	assert.Equal(t, "12.00%", formatPercent(0.12))
	assert.Equal(t, "3.20%", formatPercent(0.032))

	assert.Equal(t, "(empty)", formatPartial(contracts.PartialFactorRecord{}))
	assert.Equal(t, "sc=5 ls=1", formatPartial(contracts.PartialFactorRecord{
		LS: contracts.Rating(1),
		SC: contracts.Rating(5),
	}))

	assert.Equal(t,
		"sc=1 ne=2 ia=3 ca=4 es=5 ls=1 vcd=2 dme=3 anc=4 cir=5",
		formatFactors(contracts.FactorRecord{SC: 1, NE: 2, IA: 3, CA: 4, ES: 5, LS: 1, VCD: 2, DME: 3, ANC: 4, CIR: 5}))
}

func TestOverrideLines(t *testing.T) {
	lines := overrideLines(map[string]contracts.PartialFactorRecord{
		"NVDA": {DME: contracts.Rating(5)},
		"AAPL": {SC: contracts.Rating(4.5)},
	})
	assert.Equal(t, []string{"AAPL: sc=4.5", "NVDA: dme=5"}, lines)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, contracts.MarketInputs{Beta: 1.5, AvgRevGrowth: 0.08}))
	assert.JSONEq(t, `{"beta":1.5,"avgRevGrowth":0.08}`, buf.String())
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"api", "sectors", "value", "overrides", "calibration", "scheduler"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	for _, sub := range []string{"show", "set-sector", "set-ticker", "clear"} {
		c, _, err := rootCmd.Find([]string{"overrides", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, c.Name())
	}
}

func TestJobResultLine(t *testing.T) {
	assert.Equal(t, "watchlist_revalue ok in 1.25s (1 attempt)", jobResultLine(scheduler.JobResult{
		JobName: "watchlist_revalue", Duration: 1250 * time.Millisecond, Attempts: 1, Success: true,
	}))
	assert.Equal(t, "watchlist_revalue failed in 0.50s (3 attempts)", jobResultLine(scheduler.JobResult{
		JobName: "watchlist_revalue", Duration: 500 * time.Millisecond, Attempts: 3,
	}))
}
