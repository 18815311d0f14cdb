package main

import "rwscout/cmd"

func main() {
	cmd.Execute()
}
