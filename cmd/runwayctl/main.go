// Command runwayctl runs the projection engine offline over a portfolio file.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
