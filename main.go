package main

import "gitlab.com/unchained-card/card_api/cmd"

func main() {
	cmd.Execute()
}
