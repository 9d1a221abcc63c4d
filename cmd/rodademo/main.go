// Command rodademo wires an Object Dictionary, a RemoteAccessServer and
// an own-thread WorkHook together and drives a few requests through it,
// the way cmd/canopen wires a bus, a node and an object dictionary
// together in the teacher repo.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/canroda/roda/pkg/od"
	"github.com/canroda/roda/pkg/roda"
	"github.com/canroda/roda/pkg/server"
	"github.com/canroda/roda/pkg/workhook"
)

const (
	defaultMaxRequestSize  = 4096
	defaultMaxResponseSize = 4096
)

func main() {
	log.SetLevel(log.InfoLevel)

	edsPath := flag.String("p", "", "EDS-style ini file path (demo OD is used if empty)")
	maxReq := flag.Uint("max-req", defaultMaxRequestSize, "server max request size in bytes")
	maxResp := flag.Uint("max-resp", defaultMaxResponseSize, "server max response size in bytes")
	flag.Parse()

	dictionary, err := loadDictionary(*edsPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load object dictionary")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("service", "[DEMO]")

	srv := server.New(dictionary, nil, uint32(*maxReq), uint32(*maxResp), logger)
	hook := workhook.NewOwnThread(srv, logger)
	srv.SetHook(hook)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hook.Start(ctx)
	defer hook.Stop()

	client := newDemoClient()
	if err := srv.Register(client); err != nil {
		log.WithError(err).Fatal("register failed")
	}
	if err := srv.OnStart(); err != nil {
		log.WithError(err).Fatal("start failed")
	}

	client.waitReady(5 * time.Second)

	write, err := roda.NewWriteRequest(256, 0x1000, 0, od.AttributeSdoW, roda.AccessSingleSubindex, []byte{0xEF, 0xBE, 0xAD, 0xDE})
	if err != nil {
		log.WithError(err).Fatal("building write request")
	}
	if err := srv.Send(write); err != nil {
		log.WithError(err).Fatal("send write failed")
	}

	read, err := roda.NewReadRequest(256, 0x1000, 0, od.AttributeSdoR, roda.AccessSingleSubindex)
	if err != nil {
		log.WithError(err).Fatal("building read request")
	}
	if err := srv.Send(read); err != nil {
		log.WithError(err).Fatal("send read failed")
	}

	client.waitResponses(2, 5*time.Second)

	for _, resp := range client.drain() {
		fmt.Printf("%s response: %+v\n", resp.Kind(), resp)
	}

	srv.Unregister()
	_ = srv.OnStop()
}

// loadDictionary builds the object dictionary either from an EDS file or
// a small built-in demo layout matching spec.md §8 scenario S1.
func loadDictionary(path string) (*od.ObjectDictionary, error) {
	if path != "" {
		return od.LoadFromINI(path)
	}

	dict := od.NewObjectDictionary()
	v, err := od.NewVariable(0, "demo variable", od.UNSIGNED32, od.AttributeSdoRw, "0")
	if err != nil {
		return nil, fmt.Errorf("building demo variable: %w", err)
	}
	dict.AddVariable(0x1000, v)
	return dict, nil
}
