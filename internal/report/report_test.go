package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/nqueens"
)

func assertGolden(t *testing.T, name string, got []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}

func TestFourQueensWithBoards(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Summary{Params: domain.Params{N: 4, K: 0}, Procs: 2}, nqueens.Solve(4), Options{Boards: true})
	require.NoError(t, err)

	assertGolden(t, "four_queens_boards", buf.Bytes())
}

func TestSixQueens(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Summary{Params: domain.Params{N: 6, K: 2}, Procs: 3}, nqueens.Solve(6), Options{})
	require.NoError(t, err)

	assertGolden(t, "six_queens", buf.Bytes())
}

func TestEmptySolutionSet(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Summary{Params: domain.Params{N: 3, K: 1}, Procs: 2}, nqueens.Solve(3), Options{Boards: true})
	require.NoError(t, err)

	assert.Equal(t, "N-Queens n=3 k=1 procs=2\nsolutions: 0\n", buf.String())
}

func TestLimitAndThousands(t *testing.T) {
	sols := domain.Solutions{N: 1, Values: make([]uint32, 14200)}

	var buf bytes.Buffer
	err := Write(&buf, Summary{Params: domain.Params{N: 1, K: 1}, Procs: 5, Elapsed: 1500 * time.Millisecond}, sols, Options{Limit: 2})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"N-Queens n=1 k=1 procs=5",
		"solutions: 14,200",
		"elapsed: 1.5s",
		"0",
		"0",
		"... 14,198 more",
	}, lines)
}

func TestBoard(t *testing.T) {
	assert.Equal(t, ". Q . .\n. . . Q\nQ . . .\n. . Q .\n", Board(domain.Placement{1, 3, 0, 2}))
	assert.Equal(t, "Q\n", Board(domain.Placement{0}))
}
