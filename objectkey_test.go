package naming

import "testing"

func TestObjectKey_Suffix(t *testing.T) {
	o := func(key ObjectKey, prefix string, en uint64, eok bool) {
		t.Helper()
		n, ok := key.Suffix(prefix)
		if n != en || ok != eok {
			t.Errorf("** %q.Suffix(%q) = (%d, %v), wanted (%d, %v)", key, prefix, n, ok, en, eok)
		}
	}
	o("NC0", "NC", 0, true)
	o("NC42", "NC", 42, true)
	o("NC042", "NC", 0, false)
	o("NC", "NC", 0, false)
	o("NCx", "NC", 0, false)
	o("XY5", "NC", 0, false)
	o("NC-1", "NC", 0, false)
	o("NC99999999999999999999", "NC", 0, false)
	o("7", "", 7, true)
}

func TestMakeKey(t *testing.T) {
	deepEqual(t, makeKey("NC", 0), ObjectKey("NC0"))
	deepEqual(t, makeKey("NC", 1234), ObjectKey("NC1234"))
	n, ok := makeKey("P", 77).Suffix("P")
	deepEqual(t, n, uint64(77))
	deepEqual(t, ok, true)
}

func TestValidateKey(t *testing.T) {
	for _, k := range []ObjectKey{"NC0", "NC12", "root", "a.b"} {
		if err := ValidateKey(k); err != nil {
			t.Errorf("** ValidateKey(%q) = %v, wanted nil", k, err)
		}
	}
	for _, k := range []ObjectKey{"", ".", "..", ".tmp-NC1", "a/b", `a\b`, "a\x00", "counter"} {
		if err := ValidateKey(k); err == nil {
			t.Errorf("** ValidateKey(%q) = nil, wanted error", k)
		}
	}
}
