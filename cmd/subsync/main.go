// Command subsync corrects subtitle drift against a video/audio file
// by sampling transcribed audio against the subtitle track (spec §1).
package main

import (
	"fmt"
	"os"

	"subsync/internal/errs"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		os.Exit(runServe(os.Args[2:]))
	}
	os.Exit(runSync(os.Args[1:]))
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return errs.ExitCode(err)
}
