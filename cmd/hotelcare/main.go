// Command hotelcare records hotel maintenance from the terminal: hotels,
// apartments, their fixtures and maintenance history, and dated tasks, kept in
// sync with the configured document store.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"

	"hotelcare/internal/auth"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code. A panic
// anywhere below is turned into a diagnostic dump and exit code 2.
func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			writeCrashReport(stderr, r, debug.Stack())
			code = 2
		}
	}()
	// A missing .env file is normal.
	_ = godotenv.Load()

	a := newApp(stdout, stderr)
	defer a.close()
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "erro:", describe(err))
		return 1
	}
	return 0
}

func writeCrashReport(w io.Writer, recovered any, stack []byte) {
	fmt.Fprintln(w, "Ocorreu um erro inesperado.")
	fmt.Fprintf(w, "panic: %v\n\n%s\n", recovered, stack)
}

var authErrors = []error{
	auth.ErrInvalidEmail,
	auth.ErrInvalidCredential,
	auth.ErrEmailInUse,
	auth.ErrWeakPassword,
	auth.ErrMissingFields,
}

// describe renders err for the terminal; authentication failures use the
// same wording as the login screen.
func describe(err error) string {
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return auth.Message(err)
		}
	}
	return err.Error()
}
