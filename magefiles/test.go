//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// All runs all tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs all tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests and writes coverage.out.
func (Test) Cover() error {
	return sh.RunV(binGo, "test", "-coverprofile=coverage.out", "./...")
}

// Postgres starts the PostgreSQL container and runs the repository and
// persister tests against it.
func (Test) Postgres() error {
	mg.Deps(Postgres.Up)
	env := map[string]string{envTestPostgresDSN: postgresDSN()}
	return sh.RunWithV(env, binGo, "test", "-count=1", "./internal/repository/...", "./internal/persister/...")
}
