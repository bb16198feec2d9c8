package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("bcrypt at the production cost is slow")
	}

	hash, err := HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-passw0rd" {
		t.Fatal("hash equals the plaintext")
	}
	if !CheckPasswordHash("s3cret-passw0rd", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
