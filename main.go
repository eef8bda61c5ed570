package main

import "github.com/reloquent/schemaforge/cmd"

func main() {
	cmd.Execute()
}
