package main

import "github.com/iksnae/pocket-chat/cmd"

func main() {
	cmd.Execute()
}
