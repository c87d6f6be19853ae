//go:build !linux

package main

import (
	"context"
	"fmt"
)

func runScripted(_ context.Context, _, _ string) error {
	return fmt.Errorf("--script is only supported on linux")
}
