package main

import "github.com/RyanBlaney/sonido-tab/cmd"

func main() {
	cmd.Execute()
}
