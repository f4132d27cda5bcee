package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("s3creto")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(h, "s3creto") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(h, "S3creto") || CheckPassword(h, "") {
		t.Fatalf("wrong password accepted")
	}
	if CheckPassword("not-a-hash", "s3creto") {
		t.Fatalf("malformed hash accepted")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("empty password should be rejected")
	}
}

func TestNewToken(t *testing.T) {
	a, err := NewToken(18)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewToken(18)
	if len(a) != 24 || a == b {
		t.Fatalf("tokens %q %q", a, b)
	}
}
