package main

import "compass/cmd"

func main() {
	cmd.Execute()
}
