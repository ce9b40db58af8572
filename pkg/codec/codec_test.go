package codec

import (
	"testing"

	"github.com/cuemby/portod/pkg/perr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"1K", 1024},
		{"1KB", 1024},
		{"1KiB", 1024},
		{"1M", 1048576},
		{"0", 0},
		{"512", 512},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseSizeBad(t *testing.T) {
	_, err := ParseSize("foo")
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.InvalidValue))
}

func TestParseBoolCaseSensitive(t *testing.T) {
	v, err := ParseBool("true")
	require.NoError(t, err)
	assert.True(t, v)

	_, err = ParseBool("True")
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.InvalidValue))
}

func TestParseCPU(t *testing.T) {
	cores, err := ParseCPU("50", 4)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cores)

	cores, err = ParseCPU("1.5c", 4)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cores)

	_, err = ParseCPU("-1", 4)
	require.Error(t, err)
}

func TestOrderedMapRoundTrip(t *testing.T) {
	m := ParseOrderedMap("fs: 100; sda: 200")
	v, ok := m.Get("sda")
	require.True(t, ok)
	assert.Equal(t, "200", v)
	assert.Equal(t, "fs: 100; sda: 200", m.String())
}

func TestEnvListIndexedSet(t *testing.T) {
	l := ParseEnvList("A=1;B=2")
	v, ok := l.Get("B")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	l.Set("B", "3")
	assert.Equal(t, "A=1;B=3", l.String())
}

func TestSplitEscaped(t *testing.T) {
	got := SplitEscaped(`a\;b;c`, ';')
	assert.Equal(t, []string{"a;b", "c"}, got)
}

func TestFlagSetUnknown(t *testing.T) {
	table := []Flag{{Name: "a", Mask: 1}, {Name: "b", Mask: 2}}
	_, err := ParseFlagSet("a;z", table)
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.InvalidValue))
}

func TestFlagSetResidual(t *testing.T) {
	table := []Flag{{Name: "a", Mask: 1}}
	got := FormatFlagSet(0x11, table)
	assert.Equal(t, "a;0x10", got)
}
