package main

import (
	"fmt"
	"os"

	"soloos/smartptr/stress"
)

func main() {
	var (
		stresser stress.Stresser
		options  stress.Options
		err      error
	)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: smartptrstress options.json")
		os.Exit(2)
	}

	err = stress.LoadOptionsFile(os.Args[1], &options)
	assertErrIsNil(err)

	assertErrIsNil(stresser.Init(options))
	assertErrIsNil(stresser.Start())
}

func assertErrIsNil(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "smartptrstress: %+v\n", err)
		os.Exit(1)
	}
}
