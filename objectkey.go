package naming

import (
	"strconv"
	"strings"
)

// DefaultPrefix is the object key prefix used when Options.Prefix is empty.
const DefaultPrefix = "NC"

// rootSuffix is the counter value reserved for the root container. The
// allocator never returns it, so the root key needs no lookup.
const rootSuffix = 0

// ObjectKey identifies one container within one service instance. It is the
// key prefix followed by the decimal counter value that minted it.
type ObjectKey string

func makeKey(prefix string, n uint64) ObjectKey {
	return ObjectKey(prefix + strconv.FormatUint(n, 10))
}

// Suffix returns the counter value encoded in the key, or false if the key
// does not consist of prefix followed by a canonical decimal number.
func (k ObjectKey) Suffix(prefix string) (uint64, bool) {
	s, ok := strings.CutPrefix(string(k), prefix)
	if !ok || s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (k ObjectKey) String() string {
	return string(k)
}

// ValidateKey checks that k can be used as a single file name inside a store
// directory. Keys starting with a dot are reserved for store bookkeeping.
func ValidateKey(k ObjectKey) error {
	s := string(k)
	if s == "" || s[0] == '.' || strings.ContainsAny(s, "/\\\x00") {
		return ErrInvalidKey
	}
	if s == counterFileName {
		return ErrInvalidKey
	}
	return nil
}
