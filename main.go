package main

import "github.com/Tiliavir/shiftplan/cmd"

func main() {
	cmd.Execute()
}
