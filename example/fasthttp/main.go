package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/lixenwraith/sink"
	"github.com/lixenwraith/sink/compat"
	"github.com/valyala/fasthttp"
)

func main() {
	s, err := sink.NewBuilder().
		Directory("/var/log/fasthttp").
		QueueCapacity(2048, sink.OverflowDrop).
		Build()
	if err != nil {
		panic(err)
	}
	defer s.Shutdown()

	fasthttpAdapter := compat.NewFastHTTPAdapter(
		s,
		compat.WithDefaultTag("INFO"),
		compat.WithTagDetector(customTagDetector),
	)

	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customTagDetector(msg string) string {
	if strings.Contains(msg, "connection cannot be served") {
		return "WARN"
	}
	if strings.Contains(msg, "error when serving connection") {
		return "ERROR"
	}
	return compat.DetectTag(msg)
}
