package pallas

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueIntPromotionAcrossImmediateRange(t *testing.T) {
	v := NewInt(maxImmediateInt)
	assert.True(t, v.IsInt())
	assert.Equal(t, int64(maxImmediateInt), v.AsInt64())

	promoted := NewInt(maxImmediateInt + 1)
	assert.True(t, promoted.IsInt())
	assert.Equal(t, big.NewInt(maxImmediateInt+1), promoted.AsBigInt())
}

func TestValueNormalizeBigDemotesWhenItFits(t *testing.T) {
	small := normalizeBig(big.NewInt(42))
	assert.Equal(t, int64(42), small.AsInt64())

	huge := normalizeBig(new(big.Int).Lsh(big.NewInt(1), 100))
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 100), huge.AsBigInt())
}

func TestValueIsTrue(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"none", None, false},
		{"false", NewBool(false), false},
		{"true", NewBool(true), true},
		{"zero int", NewInt(0), false},
		{"nonzero int", NewInt(7), true},
		{"zero float", NewFloat(0), false},
		{"nonzero float", NewFloat(0.5), true},
		{"zero bigint", NewBigInt(big.NewInt(0)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.IsTrue())
		})
	}
}

func TestValueTypeAndIsInstanceOf(t *testing.T) {
	assert.Equal(t, IntClass, NewInt(1).Type())
	assert.Equal(t, FloatClass, NewFloat(1).Type())
	assert.Equal(t, BoolClass, NewBool(true).Type())
	assert.Equal(t, NoneClass, None.Type())

	huge := NewBigInt(new(big.Int).Lsh(big.NewInt(1), 100))
	assert.Equal(t, IntClass, huge.Type())

	obj := NewObject(ObjectClass)
	v := NewObjectValue(obj)
	assert.True(t, v.IsInstanceOf(ObjectClass))
	assert.False(t, v.IsInstanceOf(IntClass))
}

func TestValueStringDisplay(t *testing.T) {
	assert.Equal(t, "None", None.String())
	assert.Equal(t, "True", NewBool(true).String())
	assert.Equal(t, "False", NewBool(false).String())
	assert.Equal(t, "3", NewInt(3).String())
}
