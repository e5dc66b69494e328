package executor

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	res, err := r.Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo out; echo err 1>&2; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.False(t, res.Killed)
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	start := time.Now()
	res, err := r.Run(context.Background(), Command{
		Binary:  "sleep",
		Args:    []string{"30"},
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.Contains(t, res.KillReason, "timeout")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	// The child forks a helper that inherits the output pipes; killing
	// only the direct child would leave Wait blocked on the helper.
	start := time.Now()
	res, err := r.Run(context.Background(), Command{
		Binary:  "sh",
		Args:    []string{"-c", "sleep 30 & sleep 30"},
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.Less(t, time.Since(start), 15*time.Second)
}

func TestRun_ContextCancel(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	res, err := r.Run(ctx, Command{Binary: "sleep", Args: []string{"30"}})
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.Equal(t, "canceled", res.KillReason)
}

func TestRun_FeedsStdin(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	res, err := r.Run(context.Background(), Command{
		Binary: "cat",
		Stdin:  "hello from stdin\n",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello from stdin\n", res.Stdout)
}

func TestRun_MissingBinary(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	_, err := r.Run(context.Background(), Command{Binary: "definitely-not-a-binary-xyz"})
	assert.Error(t, err)
}

func TestRun_OutputCap(t *testing.T) {
	t.Parallel()
	r := NewRunner(DefaultConfig(), nil)

	res, err := r.Run(context.Background(), Command{
		Binary:         "sh",
		Args:           []string{"-c", "yes | head -c 4096"},
		MaxOutputBytes: 128,
	})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Stdout, 128)
}

func TestResultOutput_JoinsStreams(t *testing.T) {
	t.Parallel()

	res := &Result{Stdout: "a", Stderr: "b"}
	assert.Equal(t, "a\nb", res.Output())

	res = &Result{Stdout: "a"}
	assert.Equal(t, "a", res.Output())

	res = &Result{Stderr: "b"}
	assert.Equal(t, "b", res.Output())
}

func TestLimitedWriter_PartialWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, max: 5}

	n, err := lw.Write([]byte(strings.Repeat("x", 10)))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "must report full length to avoid short write errors")
	assert.Equal(t, "xxxxx", buf.String())
	assert.True(t, lw.truncated)

	n, err = lw.Write([]byte("y"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "xxxxx", buf.String())
}
