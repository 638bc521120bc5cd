//go:build tools

package main

// Build-time tool dependencies, kept in go.mod via this file.
import (
	_ "github.com/swaggo/swag/cmd/swag"
)
