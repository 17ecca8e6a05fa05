//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
)

// PostgreSQL test container constants.
const (
	postgresImage     = "docker.io/library/postgres:16-alpine"
	postgresContainer = "phpcr-migrate-postgres"
	postgresPort      = "55432"
	postgresPassword  = "phpcr"

	// envTestPostgresDSN enables the PostgreSQL tests of the repository
	// and persister packages.
	envTestPostgresDSN = "PHPCR_MIGRATE_TEST_POSTGRES_DSN"
)

// Postgres groups the PostgreSQL test container targets.
type Postgres mg.Namespace

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

func postgresDSN() string {
	return fmt.Sprintf("postgres://postgres:%s@localhost:%s/postgres?sslmode=disable", postgresPassword, postgresPort)
}

// Up starts the PostgreSQL test container and waits until it accepts
// connections. A running container is reused.
func (Postgres) Up() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	if exec.Command(rt, "container", "inspect", postgresContainer).Run() == nil {
		return waitForPostgres(rt)
	}

	fmt.Fprintln(os.Stderr, "Starting PostgreSQL container...")
	cmd := exec.Command(rt, "run", "-d", "--rm",
		"--name", postgresContainer,
		"-e", "POSTGRES_PASSWORD="+postgresPassword,
		"-p", postgresPort+":5432",
		postgresImage)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("starting container: %w", err)
	}
	return waitForPostgres(rt)
}

// Down removes the PostgreSQL test container. Errors are ignored because
// the container may not exist.
func (Postgres) Down() {
	rt := containerRuntime()
	if rt == "" {
		return
	}
	fmt.Fprintln(os.Stderr, "Removing PostgreSQL container...")
	_ = exec.Command(rt, "rm", "-f", postgresContainer).Run()
}

func waitForPostgres(rt string) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if exec.Command(rt, "exec", postgresContainer, "pg_isready", "-U", "postgres").Run() == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("postgres did not become ready within 30s")
}
