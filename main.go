package main

import "github.com/boardpulse/boardpulse/cmd"

func main() {
	cmd.Execute()
}
