package main

import "pulsebot/internal/app"

func main() {
	app.Main()
}
