package main

import "paygate_backend/internal/app"

func main() {
	app.Run()
}
