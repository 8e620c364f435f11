package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpilot/internal/types"
)

func analysisWithVerdict(verdict string) types.Analysis {
	return types.Analysis{Report: types.Verdict{Verdict: verdict, ConfidenceScore: 80}}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		verdict string
		want    types.RunStatus
	}{
		{"CRITICAL FAILURE (OOM)", types.StatusCritical},
		{"critical failure", types.StatusCritical},
		{"Likely OOM at step 1", types.StatusCritical},
		{"RISKY (High Probability of Crash)", types.StatusRisky},
		{"WARNING: tight memory", types.StatusRisky},
		{"SAFE TO PROCEED", types.StatusSafe},
		{"Looks good", types.StatusSafe},
		{"", types.StatusSafe},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveStatus(tc.verdict), "verdict %q", tc.verdict)
	}
}

func TestLedgerAppendFreezesConfig(t *testing.T) {
	l := New(nil)
	cfg := types.TrainingConfig{ModelFamily: "Mistral", BatchSize: types.Int(4)}

	entry := l.Append(cfg, analysisWithVerdict("SAFE TO PROCEED"))
	require.NotEmpty(t, entry.ID)
	assert.Equal(t, types.StatusSafe, entry.Status)

	*cfg.BatchSize = 64
	assert.Equal(t, 4, *l.Entries()[0].Config.BatchSize, "history must not see later edits")
}

func TestLedgerSelectionCap(t *testing.T) {
	l := New(nil)
	var ids []string
	for i := 0; i < 4; i++ {
		cfg := types.TrainingConfig{Notes: fmt.Sprintf("run %d", i)}
		ids = append(ids, l.Append(cfg, analysisWithVerdict("SAFE")).ID)
	}

	for _, id := range ids[:3] {
		require.True(t, l.Toggle(id))
	}
	require.Len(t, l.Selected(), 3)

	// Fourth selection evicts the oldest.
	require.True(t, l.Toggle(ids[3]))
	selected := l.Selected()
	require.Len(t, selected, 3)
	assert.Equal(t, ids[1], selected[0].ID)
	assert.Equal(t, ids[3], selected[2].ID)

	for _, e := range l.Entries() {
		if e.ID == ids[0] {
			assert.False(t, e.Selected, "evicted entry must be deselected")
		}
	}
}

func TestLedgerToggleOff(t *testing.T) {
	l := New(nil)
	id := l.Append(types.TrainingConfig{}, analysisWithVerdict("SAFE")).ID

	require.True(t, l.Toggle(id))
	require.Len(t, l.Selected(), 1)
	require.True(t, l.Toggle(id))
	assert.Empty(t, l.Selected())

	assert.False(t, l.Toggle("no-such-id"))
}

func TestSQLiteRoundTrip(t *testing.T) {
	store, err := OpenSQLite(t.TempDir() + "/runs.db")
	require.NoError(t, err)
	defer store.Close()

	l := New(store)
	entry := l.Append(
		types.TrainingConfig{ModelFamily: "Llama-3", ModelParamsB: types.Float(8)},
		analysisWithVerdict("CRITICAL FAILURE (OOM)"),
	)
	require.True(t, l.Toggle(entry.ID))

	got, err := store.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entry.ID, got[0].ID)
	assert.Equal(t, types.StatusCritical, got[0].Status)
	assert.Equal(t, 8.0, *got[0].Config.ModelParamsB)
	assert.True(t, got[0].Selected)

	assert.Error(t, store.SetSelected("missing", true))
}
