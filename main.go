package main

import (
	"github.com/gifttotost1449/huggingface-sync/cmd"
	"github.com/gifttotost1449/huggingface-sync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
