package main

import "github.com/gopanel/gopanel/cmd/gopanel/commands"

func main() {
	commands.Execute()
}
