// Command vocabtrain trains a byte-level subword vocabulary against a
// corpus file.
package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vocabtrain: %v\n", err)
		os.Exit(1)
	}
}
