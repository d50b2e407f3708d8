package main

import (
	"errors"
	"log"
	"os"
	"runtime/debug"

	"github.com/jrsteele09/go-taskmaster/internal/cmd"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	return cmd.Execute()
}
