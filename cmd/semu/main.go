// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"

	"github.com/ezrec/sampo/emulator"
	"github.com/ezrec/sampo/machine"
)

func main() {
	var compile string
	var input string
	var output string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".s file to assemble and run")
	flag.StringVar(&input, "i", "-", "Serial input")
	flag.StringVar(&output, "o", "-", "Serial output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	if input == "-" {
		emu.Serial.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Serial.Input = inf
	}

	if output == "-" {
		emu.Serial.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Serial.Output = ouf
	}

	if len(compile) != 0 {
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}

		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	} else {
		if flag.NArg() != 1 {
			log.Fatalf("%v: Expected an image file, got: %v", os.Args[0], flag.Args())
		}
		name := flag.Arg(0)

		image, err := os.ReadFile(name)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}

		err = emu.Machine.Load(image, machine.DefaultBase)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	for done, err := emu.Step(); !done; done, err = emu.Step() {
		if err != nil {
			log.Fatal(err)
		}
	}
}
