// README: Scenario runner; executes synthetic assignment pipelines against
// in-process capability fakes and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "Total timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results := RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail := 0, 0
	for _, r := range results {
		status := "PASS"
		if !r.OK {
			status = "FAIL"
			fail++
		} else {
			pass++
		}
		fmt.Printf("%-40s %-5s %8s  %s\n", r.Name, status, r.Latency.Round(time.Microsecond), r.Note)
	}
	fmt.Printf("PASS=%d FAIL=%d\n", pass, fail)
	if fail > 0 {
		os.Exit(1)
	}
}
