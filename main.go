package main

import (
	"fmt"
	"os"

	"github.com/tatianab/deduction-bench/internal/tui"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: deduction-bench <record.jsonl>")
		os.Exit(2)
	}
	if err := tui.Run(os.Args[1]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
