package session

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontent/internal/content/mirror"
	"github.com/dshills/doccontent/internal/logging"
)

func testConfig(seed uint64) Config {
	return Config{
		Seed:      seed,
		Steps:     500,
		MaxInsert: 6,
		Alphabet:  "ab \n",
		Text:      "hello world",
		Checker:   mirror.Options{MaxUndo: 16},
	}
}

func TestRunDefaultSharing(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		rep := Run(context.Background(), testConfig(seed))
		require.True(t, rep.OK(), "seed %d: %v", seed, rep.Failure)
		assert.Equal(t, 500, rep.Steps)
	}
}

func TestRunDisplacedSharing(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		cfg := testConfig(seed)
		cfg.Checker.SharingIncludesDisplaced = true
		rep := Run(context.Background(), cfg)
		require.True(t, rep.OK(), "seed %d: %v", seed, rep.Failure)
	}
}

func TestRunDeterministic(t *testing.T) {
	a := Run(context.Background(), testConfig(42))
	b := Run(context.Background(), testConfig(42))
	assert.Equal(t, a.Ops, b.Ops)
	assert.Equal(t, a.Length, b.Length)
	assert.Equal(t, a.Rejected, b.Rejected)
	assert.Positive(t, a.Rejected, "generator provokes rejections")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := Run(ctx, testConfig(1))
	assert.ErrorIs(t, rep.Failure, context.Canceled)
	assert.Zero(t, rep.Steps)
}

func TestRunLogsSteps(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.NewWithWriter(&buf, "debug"))

	cfg := testConfig(3)
	cfg.Steps = 5
	rep := Run(ctx, cfg)
	require.True(t, rep.OK())
	assert.Contains(t, buf.String(), "seed=3")
	assert.Contains(t, buf.String(), "session done")
}

func TestRunMany(t *testing.T) {
	cfg := testConfig(100)
	cfg.Steps = 200

	reports, err := RunMany(context.Background(), cfg, 8, 3)
	require.NoError(t, err)
	require.Len(t, reports, 8)
	for i, r := range reports {
		assert.Equal(t, uint64(100+i), r.Seed)
	}
	assert.Empty(t, Failed(reports))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "release", OpRelease.String())
	assert.Equal(t, "unknown", opCount.String())

	total := 0
	for _, w := range weights {
		total += w
	}
	assert.Equal(t, 100, total)
}
