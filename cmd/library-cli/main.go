package main

import "library-circulation/cmd/library-cli/command"

func main() {
	command.Execute()
}
