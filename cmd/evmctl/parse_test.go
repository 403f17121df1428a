package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/shipment"
)

func TestParseVinSpec(t *testing.T) {
	variant, vins, err := parseVinSpec("101= LSV1, LSV2 ,,LSV3")
	require.NoError(t, err)
	assert.Equal(t, "101", variant)
	assert.Equal(t, []string{"LSV1", "LSV2", "LSV3"}, vins)

	_, _, err = parseVinSpec("LSV1,LSV2")
	assert.True(t, apperr.IsValidation(err))
	_, _, err = parseVinSpec("=LSV1")
	assert.True(t, apperr.IsValidation(err))
}

func TestReadVinFile(t *testing.T) {
	got, err := readVinFile(strings.NewReader("# order o-1\n101 LSV1\n101,LSV2\n\n102\tLSV9\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"101": {"LSV1", "LSV2"}, "102": {"LSV9"}}, got)

	_, err = readVinFile(strings.NewReader("101 LSV1 extra\n"))
	assert.True(t, apperr.IsValidation(err))
}

func TestAssignVinsSplitsRepeatedVariant(t *testing.T) {
	items := []shipment.Item{
		{ItemID: "a", VariantID: "101", Quantity: 2},
		{ItemID: "b", VariantID: "102", Quantity: 1},
		{ItemID: "c", VariantID: "101", Quantity: 1},
	}
	got := assignVins(items, map[string][]string{
		"101": {"V1", "V2", "V3", "V4"},
		"102": {"W1"},
	})
	assert.Equal(t, []string{"V1", "V2"}, got["a"])
	assert.Equal(t, []string{"W1"}, got["b"])
	assert.Equal(t, []string{"V3", "V4"}, got["c"], "surplus lands on the last line")
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDate("2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, 4, d.Day())

	_, err = parseDate("04/03/2025")
	assert.True(t, apperr.IsValidation(err))
}
