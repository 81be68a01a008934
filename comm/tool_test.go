package comm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUcs2(t *testing.T) {
	for _, s := range []string{"", "ascii", "会议 conference", "emoji 🎯"} {
		bts, err := Ucs2Encode(s)
		require.NoError(t, err)
		t.Logf("%q: %x", s, bts)
		assert.Equal(t, 0, len(bts)%2)

		back, err := Ucs2Decode(bts)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
}

func TestSavePid(t *testing.T) {
	f := filepath.Join(t.TempDir(), "relay.pid")
	pid := SavePid(f)
	data, err := os.ReadFile(f)
	require.NoError(t, err)
	assert.Equal(t, pid, string(data))
}
