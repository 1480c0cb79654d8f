package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080/professionals
func main() {
	url := flag.String("url", "http://localhost:8080/professionals", "the endpoint to poll")
	interval := flag.Duration("interval", 5*time.Second, "the time between two attempts")
	flag.Parse()

	var totalWaitTime time.Duration
	for {
		res, err := http.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += *interval
		fmt.Printf("Waiting %s", totalWaitTime)
		fmt.Println()
		time.Sleep(*interval)
	}
}
