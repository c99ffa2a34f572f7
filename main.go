package main

import "github.com/tylercasey2263/hubspot-contact-upload/cmd"

func main() {
	cmd.Execute()
}
