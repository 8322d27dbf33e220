// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ezrec/sampo/emulator"
)

func main() {
	var output string
	var listing bool
	var verbose bool

	flag.StringVar(&output, "o", "a.bin", "Output image file")
	flag.BoolVar(&listing, "l", false, "Print the assembled listing")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("%v: Expected a single source file, got: %v", os.Args[0], flag.Args())
	}
	source := flag.Arg(0)

	inf, err := os.Open(source)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}
	defer inf.Close()

	// The emulator supplies the system defines as predefined equates.
	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	err = emu.Assemble(inf)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}

	if listing {
		fmt.Print(emu.Program.String())
	}

	err = os.WriteFile(output, emu.Program.Image(), 0o644)
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}
}
