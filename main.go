package main

import "sniprun/cmd"

func main() {
	cmd.Execute()
}
