package main

import "github.com/frahmantamala/trail-report/cmd"

func main() {
	cmd.Execute()
}
