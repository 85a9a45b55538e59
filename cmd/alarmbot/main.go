// Package main contains the entrypoint for the alarm relay bot.
package main

import "github.com/edgard/alarmbot/cmd/alarmbot/cmd"

func main() {
	cmd.Execute()
}
