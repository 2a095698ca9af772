package main

import "chemcpu/cmd"

func main() {
	cmd.Execute()
}
