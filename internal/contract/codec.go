package contract

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// encodeCall builds calldata: 4-byte selector + head + tail. Static
// parameters go in the head; string and bytes parameters put an offset in
// the head and their length-prefixed data in the tail.
func encodeCall(fn *ABIEntry, args []string) (string, error) {
	var head, tail strings.Builder
	headSize := 32 * len(fn.Inputs)

	for i, param := range fn.Inputs {
		var argStr string
		if i < len(args) {
			argStr = args[i]
		}

		if isDynamic(param.Type) {
			enc, err := encodeDynamic(param.Type, argStr)
			if err != nil {
				return "", fmt.Errorf("encoding param %s: %w", param.Name, err)
			}
			fmt.Fprintf(&head, "%064x", headSize+tail.Len()/2)
			tail.WriteString(enc)
			continue
		}

		enc, err := encodeParam(param.Type, argStr)
		if err != nil {
			return "", fmt.Errorf("encoding param %s: %w", param.Name, err)
		}
		head.WriteString(enc)
	}

	return functionSelector(fn) + head.String() + tail.String(), nil
}

// functionSelector computes the 4-byte selector for a function.
func functionSelector(fn *ABIEntry) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(fn.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

func isDynamic(typ string) bool {
	return typ == "string" || typ == "bytes"
}

// encodeParam encodes a single static ABI parameter as a 32-byte hex word.
func encodeParam(typ, val string) (string, error) {
	switch {
	case strings.HasSuffix(typ, "]") || strings.HasPrefix(typ, "tuple"):
		return "", fmt.Errorf("unsupported ABI type %q", typ)

	case typ == "address":
		addr := strings.TrimPrefix(val, "0x")
		if len(addr) != 40 {
			return "", fmt.Errorf("invalid address: %q", val)
		}
		if _, err := hex.DecodeString(addr); err != nil {
			return "", fmt.Errorf("invalid address: %q", val)
		}
		return fmt.Sprintf("%064s", strings.ToLower(addr)), nil

	case strings.HasPrefix(typ, "uint") || strings.HasPrefix(typ, "int"):
		n := new(big.Int)
		if _, ok := n.SetString(val, 0); !ok {
			return "", fmt.Errorf("invalid integer: %s", val)
		}
		if n.Sign() < 0 {
			if strings.HasPrefix(typ, "uint") {
				return "", fmt.Errorf("negative value for %s: %s", typ, val)
			}
			n.Add(n, two256)
		}
		if n.BitLen() > 256 {
			return "", fmt.Errorf("integer overflows 256 bits: %s", val)
		}
		return fmt.Sprintf("%064x", n), nil

	case typ == "bool":
		if val == "true" || val == "1" {
			return fmt.Sprintf("%064d", 1), nil
		}
		return fmt.Sprintf("%064d", 0), nil

	case typ == "bytes32":
		raw := strings.TrimPrefix(val, "0x")
		if len(raw) > 64 {
			return "", fmt.Errorf("bytes32 value too long: %s", val)
		}
		return raw + strings.Repeat("0", 64-len(raw)), nil

	default:
		return "", fmt.Errorf("unsupported ABI type %q", typ)
	}
}

// encodeDynamic encodes string or bytes as length word + right-padded data.
func encodeDynamic(typ, val string) (string, error) {
	var data []byte
	switch typ {
	case "string":
		data = []byte(val)
	case "bytes":
		b, err := hex.DecodeString(strings.TrimPrefix(val, "0x"))
		if err != nil {
			return "", fmt.Errorf("invalid bytes: %w", err)
		}
		data = b
	default:
		return "", fmt.Errorf("unsupported ABI type %q", typ)
	}

	padded := make([]byte, (len(data)+31)/32*32)
	copy(padded, data)
	return fmt.Sprintf("%064x", len(data)) + hex.EncodeToString(padded), nil
}

// decodeResult decodes the raw hex result into string values.
func decodeResult(fn *ABIEntry, hexData string) ([]string, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(hexData, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding hex result: %w", err)
	}

	if len(fn.Outputs) == 0 {
		return nil, nil
	}
	if len(data) < 32*len(fn.Outputs) {
		return nil, fmt.Errorf("result too short: %d bytes for %d outputs", len(data), len(fn.Outputs))
	}

	results := make([]string, 0, len(fn.Outputs))
	for i, out := range fn.Outputs {
		word := data[i*32 : (i+1)*32]
		val, err := decodeWord(out.Type, word, data)
		if err != nil {
			return nil, fmt.Errorf("output %d (%s): %w", i, out.Type, err)
		}
		results = append(results, val)
	}
	return results, nil
}

func decodeWord(typ string, word []byte, fullData []byte) (string, error) {
	switch {
	case typ == "address":
		return "0x" + hex.EncodeToString(word[12:]), nil

	case strings.HasPrefix(typ, "uint"):
		return new(big.Int).SetBytes(word).String(), nil

	case strings.HasPrefix(typ, "int"):
		n := new(big.Int).SetBytes(word)
		if word[0]&0x80 != 0 {
			n.Sub(n, two256)
		}
		return n.String(), nil

	case typ == "bool":
		if word[31] == 1 {
			return "true", nil
		}
		return "false", nil

	case typ == "string":
		// String uses an offset + length encoding.
		off := new(big.Int).SetBytes(word)
		if !off.IsUint64() || off.Uint64()+32 > uint64(len(fullData)) {
			return "", fmt.Errorf("string offset out of range")
		}
		start := off.Uint64()
		length := new(big.Int).SetBytes(fullData[start : start+32])
		start += 32
		if !length.IsUint64() || start+length.Uint64() > uint64(len(fullData)) {
			return "", fmt.Errorf("string length out of range")
		}
		return string(fullData[start : start+length.Uint64()]), nil

	default:
		return "0x" + hex.EncodeToString(word), nil
	}
}
