package main

import "toiler/cmd"

func main() {
	cmd.Execute()
}
