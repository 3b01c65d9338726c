// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package secret

import (
	"testing"

	"github.com/saucelabs/spot/config"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(config.Settings{
		AddressKey: "https://127.0.0.1:8200",
		TokenKey:   "TOKEN",
	})
	if err != nil {
		t.Fatal(err)
	}

	if client.Address() != "https://127.0.0.1:8200" {
		t.Fatalf(`Expect address "https://127.0.0.1:8200" got %q`, client.Address())
	}

	if client.Token() != "TOKEN" {
		t.Fatal("Expect the token to be set")
	}
}

func TestNewClientInvalidAddress(t *testing.T) {
	// Construction failure is fatal at startup, it must surface as an error.
	if _, err := NewClient(config.Settings{AddressKey: "://not-an-address"}); err == nil {
		t.Fatal("Expect an error")
	}
}
