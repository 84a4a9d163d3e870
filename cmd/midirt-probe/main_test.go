package main

import (
	"testing"

	"github.com/midirt/midirt/config"
)

func TestRunAgainstDummyBackend(t *testing.T) {
	cfg := config.Default()
	cfg.ClientName = "midirt-probe-test"
	if err := run(cfg); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}
