// Command strata converts images to and from the strata lossless format.
//
//	strata photo.png          -> photo.strata
//	strata photo.strata       -> photo.png
//	strata encode in.jpg -o out.strata --band-rows 128 --coder zlib
//	strata decode in.strata -o out.png
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
