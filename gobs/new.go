// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"fmt"
)

func NewByTypename(typename string) (any, error) {
	var v any
	switch typename {
	case "WatchData":
		v = new(WatchData)
	case "SeenSet":
		v = new(SeenSet)
	case "SubscriberData":
		v = new(SubscriberData)
	case "ServerState":
		v = new(ServerState)
	case "KeyValue":
		v = new(KeyValue)
	default:
		return nil, fmt.Errorf("unsupported type name %q", typename)
	}
	return v, nil
}
