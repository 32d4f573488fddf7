package main

import "github.com/KaramelBytes/qtable-cli/cmd"

func main() {
	cmd.Execute()
}
