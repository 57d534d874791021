package contracts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSubmitCalldataPacksProof(t *testing.T) {
	binding, err := NewRollupVerifierBinding("0x000000000000000000000000000000000000dEaD")
	require.NoError(t, err)

	proof := []byte{0xAA, 0xBB, 0xCC}
	calldata, err := binding.BuildSubmitCalldata(context.Background(), "rollup-1", proof)
	require.NoError(t, err)
	require.NotEmpty(t, calldata)

	method := binding.ABI().Methods["submitRollup"]
	unpacked, err := method.Inputs.Unpack(calldata[4:])
	require.NoError(t, err)

	got := unpacked[1].([]byte)
	require.Equal(t, proof, got)
}

func TestBuildSubmitCalldataRejectsEmptyProof(t *testing.T) {
	binding, err := NewRollupVerifierBinding("0x000000000000000000000000000000000000dEaD")
	require.NoError(t, err)

	_, err = binding.BuildSubmitCalldata(context.Background(), "rollup-1", nil)
	require.Error(t, err)
}

func TestNewRollupVerifierBindingRejectsEmptyAddress(t *testing.T) {
	_, err := NewRollupVerifierBinding("")
	require.Error(t, err)
}
