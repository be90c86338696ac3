package main

import "github.com/ankulpolara/face-attend/cmd"

func main() {
	cmd.Execute()
}
