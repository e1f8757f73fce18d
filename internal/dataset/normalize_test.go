package dataset

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1,234", "1234"},
		{" 39,512,223 ", "39512223"},
		{"$1.5e3", "1.5e3"},
		{"-12.5%", "-12.5"},
		{"abc", ""},
		{"", ""},
		{"n/a", ""},
		{"+7", "+7"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanValue(tt.raw))
		})
	}
}

func TestCleanValue_Idempotent(t *testing.T) {
	f := func(s string) bool {
		once := CleanValue(s)
		return CleanValue(once) == once
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestParseValue(t *testing.T) {
	v := ParseValue("1,234")
	require.NotNil(t, v)
	assert.Equal(t, 1234.0, *v)

	v = ParseValue("2.5e2")
	require.NotNil(t, v)
	assert.Equal(t, 250.0, *v)

	assert.Nil(t, ParseValue(""))
	assert.Nil(t, ParseValue("abc"))
	assert.Nil(t, ParseValue("1-2"))
	assert.Nil(t, ParseValue("e"))
	assert.Nil(t, ParseValue("1e999"))
}

func TestParseValue_NeverNonFinite(t *testing.T) {
	f := func(s string) bool {
		v := ParseValue(s)
		return v == nil || (!math.IsNaN(*v) && !math.IsInf(*v, 0))
	}
	require.NoError(t, quick.Check(f, nil))

	for _, s := range []string{"NaN", "Inf", "-Inf", "1e400", "-1e400"} {
		assert.Nil(t, ParseValue(s), s)
	}
}

func TestNormalizeRow_RegionKeyResolution(t *testing.T) {
	p := NormalizeRow([]string{"hc-key", "hc_key", "value"}, []string{"", " us-tx ", "5"})
	assert.Equal(t, "us-tx", p.RegionKey)

	p = NormalizeRow([]string{"hc-key", "hc_key", "value"}, []string{"us-ca", "us-tx", "5"})
	assert.Equal(t, "us-ca", p.RegionKey)

	p = NormalizeRow([]string{"HC-KEY", "value"}, []string{"us-ca", "5"})
	assert.Empty(t, p.RegionKey)
}

func TestNormalizeRow_ValueResolution(t *testing.T) {
	p := NormalizeRow([]string{"hc-key", "value", "Value"}, []string{"fr", "", "7"})
	require.NotNil(t, p.Value)
	assert.Equal(t, 7.0, *p.Value)

	p = NormalizeRow([]string{"hc-key", "Value"}, []string{"fr"})
	assert.Equal(t, "fr", p.RegionKey)
	assert.Nil(t, p.Value)
}

func TestNormalizeRows_StripsBOM(t *testing.T) {
	points := NormalizeRows([]string{"\ufeffhc-key", " value "}, [][]string{{"de", "3"}})
	require.Len(t, points, 1)
	assert.Equal(t, "de", points[0].RegionKey)
	require.NotNil(t, points[0].Value)
	assert.Equal(t, 3.0, *points[0].Value)
}

func TestSplitTable(t *testing.T) {
	header, rows := SplitTable("hc-key, value\r\nus-ca,\"12\r\n\nus-ny , 4\n")
	assert.Equal(t, []string{"hc-key", "value"}, header)
	assert.Equal(t, [][]string{{"us-ca", "12"}, {"us-ny", "4"}}, rows)

	header, rows = SplitTable("  ")
	assert.Nil(t, header)
	assert.Nil(t, rows)
}
