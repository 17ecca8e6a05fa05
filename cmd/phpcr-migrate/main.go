// Package main provides the phpcr-migrate CLI.
package main

import "github.com/mesh-intelligence/phpcrmigrate/internal/cli"

func main() {
	cli.Execute()
}
