package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/vmem"
)

func TestPageSizeCommand(t *testing.T) {
	resetFlags(t)
	out, err := captureOutput(t, runPageSize)
	require.NoError(t, err)
	assert.Contains(t, out, "page size:")

	jsonOut = true
	out, err = captureOutput(t, runPageSize)
	require.NoError(t, err)
	assert.EqualValues(t, vmem.PageSize(), decodeJSON(t, out)["PageSize"])
}

func TestFBACommand(t *testing.T) {
	tests := []struct {
		name        string
		tracking    string
		granularity int
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "count tracking",
			tracking:    "count",
			granularity: 1,
			wantContain: []string{"fixed-block:", "alloc", "free", "committed 4 -> 1 pages", "allocation difference: 0"},
		},
		{
			name:        "double free tracking",
			tracking:    "double-free",
			granularity: 2,
			wantContain: []string{"double deletes: 0, multiple deletes: 0"},
		},
		{
			name:        "no tracking",
			tracking:    "none",
			granularity: 1,
			wantContain: []string{"drained:"},
		},
		{
			name:     "unknown policy",
			tracking: "bogus",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			fbaTracking = tt.tracking
			if tt.granularity > 0 {
				fbaGranularity = tt.granularity
			}

			out, err := captureOutput(t, runFBA)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFBACommand_JSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true

	out, err := captureOutput(t, runFBA)
	require.NoError(t, err)
	doc := decodeJSON(t, out)

	steps, ok := doc["Steps"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, steps)
	first := steps[0].(map[string]any)
	assert.Equal(t, "start", first["Op"])
	assert.EqualValues(t, 1, first["Committed"])

	filled := doc["Filled"].(map[string]any)
	drained := doc["Drained"].(map[string]any)
	assert.EqualValues(t, 4, filled["CommittedPages"])
	assert.EqualValues(t, 1, drained["CommittedPages"])
	assert.EqualValues(t, 0, drained["LiveBlocks"])
	assert.EqualValues(t, 0, drained["Cursor"])
	assert.EqualValues(t, 0, drained["AllocationDifference"])
}

func TestRefsCommand(t *testing.T) {
	resetFlags(t)
	out, err := captureOutput(t, runRefs)
	require.NoError(t, err)
	assert.Contains(t, out, "shared: clone")
	assert.Contains(t, out, "strong=4")
	assert.Contains(t, out, "destroy order: [1 2]")

	jsonOut = true
	out, err = captureOutput(t, runRefs)
	require.NoError(t, err)
	doc := decodeJSON(t, out)
	events := doc["Events"].([]any)
	require.Len(t, events, 8)

	last := events[len(events)-1].(map[string]any)
	assert.EqualValues(t, 2, last["Destroyed"])
	assert.EqualValues(t, 0, last["Live"])

	released := events[6].(map[string]any)
	assert.Equal(t, "strong: release all", released["Step"])
	assert.EqualValues(t, 1, released["Live"], "weak handle keeps the block")

	refsClones = -1
	_, err = captureOutput(t, runRefs)
	require.Error(t, err)
}

func TestHandlesCommand(t *testing.T) {
	resetFlags(t)
	handlesCount = 4
	out, err := captureOutput(t, runHandles)
	require.NoError(t, err)
	assert.Contains(t, out, "6 slots, 4 control blocks")
	assert.Contains(t, out, "destroy order: [0 1 2 3]")
	assert.Contains(t, out, "allocation difference 0")

	jsonOut = true
	handlesCount = 5
	out, err = captureOutput(t, runHandles)
	require.NoError(t, err)
	doc := decodeJSON(t, out)
	assert.EqualValues(t, 7, doc["Slots"])
	assert.Equal(t, []any{0.0, 1.0, 2.0, 3.0, 4.0}, doc["DestroyOrder"])
	allocator := doc["Allocator"].(map[string]any)
	assert.EqualValues(t, 0, allocator["AllocationDifference"])
	assert.EqualValues(t, 0, allocator["LiveBlocks"])
}

func TestQuietSuppressesOutput(t *testing.T) {
	resetFlags(t)
	quiet = true
	out, err := captureOutput(t, runFBA)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFormatting(t *testing.T) {
	resetFlags(t)
	assert.Equal(t, "65,536", formatCount(65536))
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "4.0 KiB", formatBytes(4096))
	assert.Equal(t, "1.5 MiB", formatBytes(3<<19))
	assert.Equal(t, "[##..]", pageBar(2, 4))
	assert.Equal(t, "[]", pageBar(1, 0))
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	assert.Equal(t, version, rootCmd.Version, "--version reports the linked version")

	out, err := captureOutput(t, runVersion)
	require.NoError(t, err)
	assert.Contains(t, out, "memctl "+version)
	assert.Contains(t, out, "commit "+commit)

	jsonOut = true
	out, err = captureOutput(t, runVersion)
	require.NoError(t, err)
	doc := decodeJSON(t, out)
	assert.Equal(t, version, doc["Version"])
	assert.Equal(t, date, doc["Built"])
}
