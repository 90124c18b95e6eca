package contract

import "fmt"

// BuiltinKind is a contract interface whose ABI ships with the binary.
type BuiltinKind struct {
	ID   string // config key, e.g. "nftmint"
	Name string
	ABI  []ABIEntry
	// Requires lists the functions a user-supplied artifact must declare to
	// be used in place of ABI.
	Requires []string
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI. Call it from init() in the file that
// defines the ABI.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// GetBuiltinABI returns the ABI entries for a built-in ID, or nil if unknown.
func GetBuiltinABI(id string) []ABIEntry {
	return builtinRegistry[id].ABI
}

// Compatible reports whether abi can stand in for the built-in id.
func Compatible(id string, abi []ABIEntry) error {
	b, ok := builtinRegistry[id]
	if !ok {
		return fmt.Errorf("unknown built-in contract %q", id)
	}
	if err := RequireFunctions(abi, b.Requires...); err != nil {
		return fmt.Errorf("abi is not %s compatible: %w", b.Name, err)
	}
	return nil
}
