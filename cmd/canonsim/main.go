package main

import (
	"context"
	"os"

	"github.com/agbru/canonsim/internal/app"
)

func main() {
	os.Exit(app.New().Execute(context.Background(), os.Args[1:]))
}
