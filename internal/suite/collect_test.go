package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCollect_PrimaryLayout(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fam1", "a.ltlf"), "G(x -> F y)\n")
	writeFile(t, filepath.Join(dir, "fam1", "a.part"), ".inputs: x\n.outputs: y\n")
	writeFile(t, filepath.Join(dir, "fam1", "expected.txt"), "1\n")
	writeFile(t, filepath.Join(dir, "fam2", "b.ltlf"), "F z\n")
	writeFile(t, filepath.Join(dir, "fam2", "b.part"), ".inputs:\n.outputs: z\n")
	writeFile(t, filepath.Join(dir, "fam2", "expected.txt"), "0\n")

	cases, err := Collect(dir)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, ExpectedRealizable, cases[0].Expected)
	assert.Equal(t, ExpectedUnrealizable, cases[1].Expected)
	assert.Equal(t, filepath.Join(dir, "fam1", "a.part"), cases[0].Part)
}

func TestCollect_MissingCompanionIsError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fam", "a.ltlf"), "F x\n")
	writeFile(t, filepath.Join(dir, "fam", "a.part"), ".inputs:\n.outputs: x\n")
	// no expected.txt

	_, err := Collect(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected.txt")
}

func TestCollect_LucasLayout(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fam", "ltlf", "c.ltlf"), "G x\n")
	writeFile(t, filepath.Join(dir, "fam", "part", "c.part"), "inputs: x\noutputs: y\n")

	cases, err := Collect(dir)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, ExpectedRealizable, cases[0].Expected, "missing expected.txt defaults to realizable")
	assert.Equal(t, filepath.Join(dir, "fam", "part", "c.part"), cases[0].Part)
}

func TestCollect_Empty(t *testing.T) {
	t.Parallel()
	_, err := Collect(t.TempDir())
	assert.Error(t, err)
}

func TestShard_RoundRobinPartition(t *testing.T) {
	t.Parallel()

	cases := make([]Case, 10)
	for i := range cases {
		cases[i] = Case{Formula: string(rune('a' + i))}
	}

	var recombined []Case
	seen := make(map[string]bool)
	for shard := 0; shard < 4; shard++ {
		part, err := Shard(cases, shard, 4)
		require.NoError(t, err)
		for _, c := range part {
			assert.False(t, seen[c.Formula], "case %s assigned twice", c.Formula)
			seen[c.Formula] = true
			recombined = append(recombined, c)
		}
	}
	assert.Len(t, recombined, len(cases))

	first, err := Shard(cases, 0, 4)
	require.NoError(t, err)
	want := []Case{{Formula: "a"}, {Formula: "e"}, {Formula: "i"}}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("shard 0 mismatch (-want +got):\n%s", diff)
	}
}

func TestShard_Bounds(t *testing.T) {
	t.Parallel()

	cases := []Case{{Formula: "a"}}
	_, err := Shard(cases, 1, 1)
	assert.Error(t, err)
	_, err = Shard(cases, -1, 4)
	assert.Error(t, err)
	_, err = Shard(cases, 0, 0)
	assert.Error(t, err)

	// More shards than cases: high shards are empty, not an error.
	part, err := Shard(cases, 3, 4)
	require.NoError(t, err)
	assert.Empty(t, part)
}
