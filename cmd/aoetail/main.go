// aoetail follows a running server's /updates stream and prints each event,
// which is handy for checking that poll cycles are landing without opening a
// browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"

	"github.com/aoeboard/aoeboard/internal/eventsource"
)

func main() {
	log.SetHandler(text.Default)

	url := flag.String("url", "http://127.0.0.1:8080/updates", "update stream URL")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := eventsource.New(*url)
	go c.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.Events:
			fmt.Printf("%s [%s] %d bytes\n", ev.Type, ev.ID, len(ev.Data))
		case err := <-c.Errors:
			log.WithError(err).Error("stream error")
		}
	}
}
