package main

import "github.com/Coelancanth/Darklands-sub002/internal/cmd"

func main() {
	cmd.Execute()
}
