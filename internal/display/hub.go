package display

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Broadcaster delivers a message to every connected viewer.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Frame is the JSON message viewers receive.
type Frame struct {
	Run   string `json:"run"`
	Title string `json:"title"`
	Image string `json:"image"` // base64 JPEG
	Total int    `json:"total"`
}

// HubSink JPEG-encodes images and broadcasts them to websocket viewers.
type HubSink struct {
	hub   Broadcaster
	runID string
	total atomic.Int64
}

func NewHubSink(hub Broadcaster, runID string) *HubSink {
	return &HubSink{hub: hub, runID: runID}
}

func (s *HubSink) SetTotal(total int) {
	s.total.Store(int64(total))
}

func (s *HubSink) Show(title string, img gocv.Mat) error {
	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", title, err)
	}
	defer buf.Close()

	msg, err := json.Marshal(Frame{
		Run:   s.runID,
		Title: title,
		Image: base64.StdEncoding.EncodeToString(buf.GetBytes()),
		Total: int(s.total.Load()),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	s.hub.Broadcast(msg)
	return nil
}

func (s *HubSink) Close() error { return nil }
