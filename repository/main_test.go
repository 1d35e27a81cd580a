package repository

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// The config singleton skips required-variable checks in test mode.
	os.Setenv("ENVIRONMENT", "test")
	os.Exit(m.Run())
}
