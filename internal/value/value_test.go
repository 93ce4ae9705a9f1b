package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = NewAssetClass(make([]byte, PolicyIDLen), []byte("TOKA"))
	tokenB = NewAssetClass(append(make([]byte, PolicyIDLen-1), 0x01), []byte("TOKB"))
)

func TestQuantityOfAndContains(t *testing.T) {
	v := Value{Base: 5_000_000, tokenA: 42}

	assert.Equal(t, uint64(5_000_000), QuantityOf(v, Base))
	assert.Equal(t, uint64(42), QuantityOf(v, tokenA))
	assert.Zero(t, QuantityOf(v, tokenB))

	assert.True(t, Contains(v, tokenA, 42))
	assert.False(t, Contains(v, tokenA, 43))
	assert.True(t, Contains(v, tokenB, 0))
}

func TestDifference(t *testing.T) {
	a := Value{Base: 100, tokenA: 10}
	b := Value{Base: 40, tokenA: 10, tokenB: 7}

	d := Difference(a, b)
	require.Len(t, d, 2)
	assert.Equal(t, big.NewInt(60), d[Base])
	assert.Equal(t, big.NewInt(-7), d[tokenB])
	_, ok := d[tokenA]
	assert.False(t, ok, "zero deltas are dropped")
}

func TestMerge(t *testing.T) {
	merged := Merge(Value{Base: 1, tokenA: 2}, Value{tokenA: 3, tokenB: 0})
	assert.Equal(t, Value{Base: 1, tokenA: 5}, merged)

	saturated := Merge(Value{Base: ^uint64(0)}, Value{Base: 1})
	assert.Equal(t, ^uint64(0), saturated[Base])
}

func TestNonBaseAssetsSorted(t *testing.T) {
	v := Value{Base: 1, tokenB: 1, tokenA: 1}
	assert.Equal(t, []AssetClass{tokenA, tokenB}, NonBaseAssets(v))
}

func TestIsDust(t *testing.T) {
	assert.True(t, IsDust(Value{Base: 999}, 1000))
	assert.False(t, IsDust(Value{Base: 1000}, 1000))
	assert.False(t, IsDust(Value{Base: 1, tokenA: 1}, 1000), "native assets make it non-dust")
	assert.True(t, IsDust(Value{}, 1))
}

func TestDeltaPolicies(t *testing.T) {
	d := DeltaOf(map[AssetClass]int64{tokenA: 5, tokenB: -1, Base: 0})
	assert.Len(t, d, 2)
	assert.ElementsMatch(t, []string{tokenA.PolicyID, tokenB.PolicyID}, d.Policies())
	assert.Equal(t, big.NewInt(-1), d.Of(tokenB))
	assert.Equal(t, 0, d.Of(Base).Sign())
}

func TestAssetClassString(t *testing.T) {
	assert.Equal(t, "base", Base.String())
	assert.Contains(t, tokenA.String(), ".544f4b41")
}
