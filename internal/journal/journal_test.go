package journal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_CreatesDirAndAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".snapshots")
	clock := time.Date(2024, 5, 1, 10, 15, 30, 123_000_000, time.UTC)
	var mirror bytes.Buffer

	j := New(dir, nil, func() time.Time { return clock }, &mirror)

	require.NoError(t, j.Log("Heap profiler started"))
	clock = clock.Add(time.Second)
	require.NoError(t, j.Log("Deleted: x.heapsnapshot"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)

	want := "[2024-05-01T10:15:30.123Z] Heap profiler started\n" +
		"[2024-05-01T10:15:31.123Z] Deleted: x.heapsnapshot\n"
	assert.Equal(t, want, string(data))
	assert.Equal(t, want, mirror.String())
}

func TestLog_TimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	clock := time.Date(2024, 5, 1, 13, 0, 0, 0, loc)
	var mirror bytes.Buffer

	j := New(t.TempDir(), nil, func() time.Time { return clock }, &mirror)
	require.NoError(t, j.Log("x"))

	assert.True(t, strings.HasPrefix(mirror.String(), "[2024-05-01T10:00:00.000Z]"))
}

func TestLog_OrderMatchesCallOrder(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, nil, nil, &bytes.Buffer{})

	for i := 0; i < 20; i++ {
		require.NoError(t, j.Log(fmt.Sprintf("event %02d", i)))
	}

	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 20)

	var prev string
	for i, line := range lines {
		ts := line[1:strings.Index(line, "]")]
		assert.GreaterOrEqual(t, ts, prev)
		prev = ts
		assert.True(t, strings.HasSuffix(line, "event "+twoDigits(i)))
	}
}

func TestLog_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	var mirror bytes.Buffer
	j := New(filepath.Join(file, "sub"), nil, nil, &mirror)

	err := j.Log("still mirrored")
	assert.Error(t, err)
	assert.Contains(t, mirror.String(), "still mirrored")
}

func twoDigits(i int) string {
	return string([]byte{byte('0' + i/10), byte('0' + i%10)})
}
