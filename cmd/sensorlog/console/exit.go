package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit wraps a message into an error that makes the cli app terminate with code.
func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail is Exit for errors produced by a subsystem, with the error part colored.
func Fail(what string, err error) cli.ExitCoder {
	return Exit(1, "%s: %s", what, Red(err))
}
