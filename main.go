// Package main provides the entry point for gfusx.
// gfusx is a functional MIPS R3000A instruction-core emulator.
//
// For the full CLI, use: go run ./cmd/gfusx
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("gfusx - MIPS R3000A Instruction Core")
	fmt.Println("")
	fmt.Println("Usage: gfusx [options] [program.bin]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config       Path to configuration JSON file")
	fmt.Println("  -script       Starlark script that builds the program")
	fmt.Println("  -steps        Instructions to execute")
	fmt.Println("  -debug        Enable overflow and alignment traps")
	fmt.Println("  -listing      Print the program listing")
	fmt.Println("  -dump-config  Write the effective configuration and exit")
	fmt.Println("  -v            Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/gfusx' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/gfusx' instead.")
	}
}
