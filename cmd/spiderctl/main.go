//go:build linux && !tinygo

// Command spiderctl drives a SPIder board through /dev/mem on a Linux host
// that maps the clockport.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
