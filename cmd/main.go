package main

import "github.com/avelkov/quadboard/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()
	defer app.StopCron()

	app.MustListenAndServeHTTP()
}
