package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webshopsync/internal/entity"
)

func TestParseRunFlags(t *testing.T) {
	f, err := parseRunFlags(nil)
	require.NoError(t, err)
	assert.True(t, f.since.IsZero())

	f, err = parseRunFlags([]string{"--since", "2024-06-01 08:00:00"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), f.since)

	_, err = parseRunFlags([]string{"--since", "last week"})
	assert.Error(t, err)
}

func TestParsePurgeFlags(t *testing.T) {
	f, err := parsePurgeFlags([]string{"--kind", "product_series"})
	require.NoError(t, err)
	assert.Equal(t, entity.KindProductSeries, f.kind)

	f, err = parsePurgeFlags([]string{"--all"})
	require.NoError(t, err)
	assert.True(t, f.all)

	for _, args := range [][]string{nil, {"--all", "--kind", "author"}, {"--kind", "book"}} {
		_, err := parsePurgeFlags(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestParseDeleteFlags(t *testing.T) {
	f, err := parseDeleteFlags([]string{"-k", "customer", "--id", "1001"})
	require.NoError(t, err)
	assert.Equal(t, deleteFlags{kind: entity.KindCustomer, id: 1001}, f)

	_, err = parseDeleteFlags([]string{"--kind", "customer"})
	assert.Error(t, err)
}

func TestParseVerifyFlags(t *testing.T) {
	f, err := parseVerifyFlags([]string{"--id", "501"})
	require.NoError(t, err)
	assert.Equal(t, int64(501), f.id)

	_, err = parseVerifyFlags(nil)
	assert.Error(t, err)
}

func TestRun_Usage(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), nil, &bytes.Buffer{}, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), "usage: webshop-sync")

	stderr.Reset()
	err = run(context.Background(), []string{"frobnicate"}, &bytes.Buffer{}, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), `unknown command "frobnicate"`)
}
