package main

import (
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"

	"pubscrape/cmd/pubscrape/app"
	"pubscrape/internal/limiter"
)

func main() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal(err)
	}

	httpClient := &http.Client{Jar: jar}

	clock := limiter.NewClock()

	err = app.Run(os.Args, os.Stdout, os.Stderr, httpClient, clock)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
