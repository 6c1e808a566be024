package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("cartctl failed", slog.Any("err", err))
		os.Exit(1)
	}
}
