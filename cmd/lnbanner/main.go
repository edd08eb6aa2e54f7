// Package main provides the CLI entrypoint for lnbanner.
package main

func main() {
	Execute()
}
