package contracts

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// DecodeRevert matches revert data against every custom error declared on
// contractABI and, on a match, unpacks its parameters. It returns ok=false
// when data is too short to carry a selector or matches none of the
// contract's declared errors (including a plain Error(string) revert,
// which callers should try abi.UnpackRevert for instead).
func DecodeRevert(contractABI abi.ABI, data []byte) (name string, params []interface{}, ok bool) {
	if len(data) < 4 {
		return "", nil, false
	}

	selector := data[:4]
	for errName, abiErr := range contractABI.Errors {
		if !bytes.Equal(crypto.Keccak256([]byte(errorSig(abiErr)))[:4], selector) {
			continue
		}

		args, err := abiErr.Inputs.Unpack(data[4:])
		if err != nil {
			return "", nil, false
		}
		return errName, args, true
	}

	return "", nil, false
}

// errorSig builds the canonical "Name(type,type,...)" signature go-ethereum
// hashes to derive a custom error's 4-byte selector, mirroring how Method
// builds its own signature for the same purpose.
func errorSig(abiErr abi.Error) string {
	types := make([]string, len(abiErr.Inputs))
	for i, input := range abiErr.Inputs {
		types[i] = input.Type.String()
	}
	sig := abiErr.Name + "("
	for i, t := range types {
		if i > 0 {
			sig += ","
		}
		sig += t
	}
	sig += ")"
	return sig
}
