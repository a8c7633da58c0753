// Package main provides the CLI entrypoint for startupmon.
package main

func main() {
	Execute()
}
