// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"slices"
)

type Secrets struct {
	BotToken string `json:"token"`

	// AdminIDs are chat ids allowed to run administrative commands.
	// They also receive operational alerts.
	AdminIDs []int64 `json:"admins"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if slices.Contains(v.AdminIDs, 0) {
		return fmt.Errorf("zero is not a valid admin chat id")
	}
	return nil
}

func (v *Secrets) Clone() *Secrets {
	return &Secrets{
		BotToken: v.BotToken,
		AdminIDs: slices.Clone(v.AdminIDs),
	}
}
