package main

import "github.com/polytrade/polybot/cmd"

func main() {
	cmd.Execute()
}
