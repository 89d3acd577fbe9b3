package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer recoverPanic()
	Execute()
}

// recoverPanic reports an unexpected panic with its stack and exits 1, the
// same status as any other failed scan.
func recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "secscan: internal error: %v\n\n%s\n", r, debug.Stack())
	exit(1)
}
