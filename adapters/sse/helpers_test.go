package sse_test

import (
	"io"
	"log"
)

func init() {
	log.SetOutput(io.Discard)
}

// BidNotice is the event shape pushed to lot watchers.
type BidNotice struct {
	LotID  string `json:"lotId"`
	Amount int64  `json:"amount"`
}
