// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/saucelabs/customerror"
)

// Singleton validator, caches struct metadata.
var validate = validator.New()

// ValidateStruct validates a struct's `validate` tags.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return customerror.NewInvalidError(
			"struct",
			customerror.WithError(err),
		)
	}

	return nil
}
