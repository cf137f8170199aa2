package main

import "dcf/cmd/dcf/command"

func main() {
	command.Execute()
}
