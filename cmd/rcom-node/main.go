/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command rcom-node opens one endpoint of every family against a registry
// and logs whatever arrives on each - a manual/integration-testing rig, not
// a production workload, exercising the rcom façade end to end.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rcom"
	"rcom/datahub"
	"rcom/datalink"
	"rcom/messagehub"
	"rcom/messagelink"
	"rcom/multipart"
	"rcom/packet"
	"rcom/proxy"
	"rcom/rconfig"
	"rcom/streamerlink"
)

func main() {
	cfg, _, err := rconfig.Load("rcom-node", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcom-node: %v\n", err)
		os.Exit(1)
	}

	rt, err := rcom.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcom-node: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	log := rt.Logger()

	_, dlEp, err := rt.OpenDatalink(cfg.Name+"-datalink", "demo.data", func(_ *datalink.Datalink, pkt *packet.Packet) {
		log.Info("datalink: received seq=%d len=%d", pkt.Seqnum(), pkt.Len())
	})
	if err != nil {
		log.Fatal("rcom-node: open datalink: %v", err)
	}
	defer dlEp.Close()

	_, dhEp, err := rt.OpenDatahub(cfg.Name+"-datahub", "demo.data", nil, nil)
	if err != nil {
		log.Fatal("rcom-node: open datahub: %v", err)
	}
	defer dhEp.Close()

	_, mhEp, err := rt.OpenMessagehub("0.0.0.0:0", cfg.Name+"-messagehub", "demo.chat", nil,
		func(_ *messagehub.Messagehub, _ *messagelink.Link, msg json.RawMessage) {},
	)
	if err != nil {
		log.Fatal("rcom-node: open messagehub: %v", err)
	}
	defer mhEp.Close()

	_, mlEp, err := rt.OpenMessagelink(cfg.Name+"-messagelink", "demo.chat", func(_ *proxy.Messagelink, msg json.RawMessage) {
		log.Info("messagelink: received %s", string(msg))
	})
	if err != nil {
		log.Fatal("rcom-node: open messagelink: %v", err)
	}
	defer mlEp.Close()

	_, stEp, err := rt.OpenStreamer("0.0.0.0:0", cfg.Name+"-streamer", "demo.video", "image/jpeg", nil, nil)
	if err != nil {
		log.Fatal("rcom-node: open streamer: %v", err)
	}
	defer stEp.Close()

	_, slEp, err := rt.OpenStreamerlink(cfg.Name+"-streamerlink", "demo.video", func(_ *streamerlink.Streamerlink, part multipart.Part) error {
		log.Info("streamerlink: received %s part, %d bytes", part.MimeType, len(part.Payload))
		return nil
	}, true)
	if err != nil {
		log.Fatal("rcom-node: open streamerlink: %v", err)
	}
	defer slEp.Close()

	_, svcEp, err := rt.OpenService("0.0.0.0:0", cfg.Name+"-service", "demo.rpc")
	if err != nil {
		log.Fatal("rcom-node: open service: %v", err)
	}
	defer svcEp.Close()

	log.Info("rcom-node: %s running, registry=%s standalone=%t", cfg.Name, cfg.Registry, cfg.Standalone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("rcom-node: shutting down")
}
