// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"os"

	"github.com/bvk/zenwatch/pushover"
	"github.com/bvk/zenwatch/telegram"
)

type Secrets struct {
	Telegram *telegram.Secrets `json:"telegram"`
	Pushover *pushover.Keys    `json:"pushover"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Telegram == nil {
		return os.ErrInvalid
	}
	if err := v.Telegram.Check(); err != nil {
		return err
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	return nil
}
