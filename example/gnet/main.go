package main

import (
	"github.com/lixenwraith/sink"
	"github.com/lixenwraith/sink/compat"
	"github.com/panjf2000/gnet/v2"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	s, err := sink.NewBuilder().
		Directory("/var/log/gnet").
		Sanitization("single").
		Build()
	if err != nil {
		panic(err)
	}
	defer s.Shutdown()

	gnetAdapter := compat.NewGnetAdapter(s, compat.WithGnetDestination("", "engine_"))

	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		panic(err)
	}
}
