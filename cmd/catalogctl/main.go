// Command catalogctl is the operator tool for the movie catalog.
//
//	catalogctl create-user -username admin -email admin@example.com -admin
//	catalogctl movies -server http://localhost:8080 -email admin@example.com
package main

import (
	"fmt"
	"os"
)

const usage = `usage: catalogctl <command> [flags]

commands:
  create-user   create an account directly in the configured store
  movies        sign in to a running server and print the whole catalog
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create-user":
		err = createUser(os.Args[2:])
	case "movies":
		err = listMovies(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}
}
