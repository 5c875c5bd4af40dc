package main

import "github.com/ldelorme/crm-backoffice/cmd"

func main() {
	cmd.Execute()
}
