// Copyright (c) 2025 BVK Chaitanya

package gobs

type KeyValue struct {
	Key   string
	Value []byte
}
