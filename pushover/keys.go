// Copyright (c) 2025 BVK Chaitanya

package pushover

import (
	"os"
)

type Keys struct {
	ApplicationKey string `json:"application_key"`
	UserKey        string `json:"user_key"`
}

func (v *Keys) Check() error {
	if len(v.ApplicationKey) == 0 || len(v.UserKey) == 0 {
		return os.ErrInvalid
	}
	return nil
}

func (v *Keys) Clone() *Keys {
	c := *v
	return &c
}
