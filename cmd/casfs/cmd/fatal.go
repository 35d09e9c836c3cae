package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/oneconcern/casfs/pkg/errors"
	fusestatus "github.com/oneconcern/casfs/pkg/fuse/status"
)

// exit codes
const (
	exitFailure = 1
	exitConfig  = 2
	exitMount   = 3
)

var (
	// globals patched in tests
	logFatalln           = log.Fatalln
	osExit               = os.Exit
	errOut     io.Writer = os.Stderr

	// infoLogger prints command results to os.Stdout, without timestamps
	infoLogger = log.New(os.Stdout, "", 0)
)

// exitCode tells a file system that could not be mounted apart from other failures
func exitCode(err error) int {
	if errors.Is(err, fusestatus.ErrMount) || errors.Is(err, fusestatus.ErrMountpoint) {
		return exitMount
	}
	return exitFailure
}

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
		return
	}
	wrapFatalWithCode(exitCode(err), msg, err)
}

func wrapFatalWithCode(code int, msg string, err error) {
	_, _ = fmt.Fprintf(errOut, "%s: %v\n", msg, err)
	osExit(code)
}
