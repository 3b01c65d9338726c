// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// Package secret constructs the secret-store collaborator. Only the
// construction contract matters to the service shell: it's fed the resolved
// settings, and a failure is fatal at startup. The store's protocol is out
// of scope here.
package secret

import (
	vault "github.com/hashicorp/vault/api"
	"github.com/saucelabs/customerror"
	"github.com/saucelabs/spot/config"
)

// Settings keys. Standard `VAULT_*` environment variables are honored too,
// the explicit settings take precedence.
const (
	AddressKey = "vault_addr"
	TokenKey   = "vault_token"
)

// NewClient builds a Vault API client from the resolved settings.
func NewClient(settings config.Settings) (*vault.Client, error) {
	cfg := vault.DefaultConfig()

	if address := settings[AddressKey]; address != "" {
		cfg.Address = address
	}

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, customerror.NewFailedToError(
			"create secret-store client",
			customerror.WithError(err),
		)
	}

	if token := settings[TokenKey]; token != "" {
		client.SetToken(token)
	}

	return client, nil
}
