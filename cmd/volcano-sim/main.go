// Package main provides the volcano-sim CLI.
//
// volcano-sim drives a complete simulation run against a Volcano
// computation server: it reads an input configuration and its network
// file, provisions the server-side resources they declare, submits the
// simulation, polls it to completion and downloads the result rasters.
package main

func main() {
	Execute()
}
