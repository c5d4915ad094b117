// alertctl runs alert analyses from the command line against the same
// upstream services as the HTTP server.
package main

func main() {
	Execute()
}
