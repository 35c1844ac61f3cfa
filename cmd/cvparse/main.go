package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/cv-parser/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// exitCode is 2 for bad input, 3 when the OCR service could not be reached and 1 otherwise.
func exitCode(err error) int {
	switch common.StatusFromError(err).Code() {
	case codes.InvalidArgument:
		return 2
	case codes.Unavailable:
		return 3
	default:
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		printError("Error: %s\n", common.StatusFromError(err).Message())
		stop()
		os.Exit(exitCode(err))
	}
}
