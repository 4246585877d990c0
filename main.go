package main

import "github.com/iksnae/ollama-chat/cmd"

func main() {
	cmd.Execute()
}
