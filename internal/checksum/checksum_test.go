package checksum

import "testing"

func TestSum_KnownVector(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestFingerprint_PrefixOfSum(t *testing.T) {
	data := []byte("fn main() {}")
	fp := Fingerprint(data)
	if len(fp) != Width {
		t.Fatalf("len = %d, want %d", len(fp), Width)
	}
	if fp != Sum(data)[:Width] {
		t.Errorf("fingerprint %q is not a prefix of the digest", fp)
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	if Fingerprint([]byte("same")) != Fingerprint([]byte("same")) {
		t.Error("same input produced different fingerprints")
	}
	if Fingerprint([]byte("a")) == Fingerprint([]byte("b")) {
		t.Error("different input produced the same fingerprint")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if got := Fingerprint(nil); got != "e3b0c44" {
		t.Errorf("Fingerprint(nil) = %q, want e3b0c44", got)
	}
}
