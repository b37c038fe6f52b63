// SPDX-License-Identifier: MIT
package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/kappa/tensor"
)

func block(x float64) tensor.Block {
	return tensor.Block{{x, 0, 0}, {0, x, 0}, {0, 0, x}}
}

func TestDenseAndSparse_AgreeOnSupport(t *testing.T) {
	t.Parallel()

	d, err := tensor.NewDense(2, 3)
	require.NoError(t, err)
	coords := []tensor.Coord{{1, 2, 0}, {0, 1, 1}, {0, 0, 2}}
	values := []tensor.Block{block(3), block(2), block(1)}
	for i, c := range coords {
		require.NoError(t, d.Set(c.K, c.M, c.N, values[i]))
	}
	s, err := tensor.NewSparse(2, 3, coords, values)
	require.NoError(t, err)

	require.False(t, d.IsSparse())
	require.True(t, s.IsSparse())
	require.Equal(t, 18, d.NNZ())
	require.Equal(t, 3, s.NNZ())

	s.Each(func(c tensor.Coord, v tensor.Block) {
		dv, ok := d.At(c.K, c.M, c.N)
		require.True(t, ok)
		require.Equal(t, dv, v)
	})

	// Sparse iteration is sorted.
	var seen []tensor.Coord
	s.Each(func(c tensor.Coord, _ tensor.Block) { seen = append(seen, c) })
	require.Equal(t, []tensor.Coord{{0, 0, 2}, {0, 1, 1}, {1, 2, 0}}, seen)

	_, ok := s.At(1, 1, 1)
	require.False(t, ok)

	one := func(tensor.Coord) float64 { return 1 }
	require.Equal(t, tensor.Sum(d, one), tensor.Sum(s, one))
	require.Equal(t, 6.0, tensor.Sum(s, one)[0][0])
}

func TestErrors(t *testing.T) {
	t.Parallel()

	_, err := tensor.NewDense(0, 1)
	require.ErrorIs(t, err, tensor.ErrShape)

	d, err := tensor.NewDense(1, 1)
	require.NoError(t, err)
	require.ErrorIs(t, d.Set(0, 1, 0, block(1)), tensor.ErrOutOfRange)

	_, err = tensor.NewSparse(1, 2, []tensor.Coord{{0, 0, 0}, {0, 0, 0}}, []tensor.Block{block(1), block(2)})
	require.ErrorIs(t, err, tensor.ErrShape)
	_, err = tensor.NewSparse(1, 2, []tensor.Coord{{0, 2, 0}}, []tensor.Block{block(1)})
	require.ErrorIs(t, err, tensor.ErrOutOfRange)
}
