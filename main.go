package main

import "voxparquet/cmd"

func main() {
	cmd.Execute()
}
