// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"net/url"
	"strconv"
	"time"
)

// params builds query strings, skipping unset values.
type params url.Values

func newParams() params {
	return params{}
}

// addParam adds a parameter to the query (only if non-empty)
func (p params) addParam(key, value string) params {
	if value != "" {
		url.Values(p).Set(key, value)
	}
	return p
}

// addIntParam adds an integer parameter to the query (only if > 0)
func (p params) addIntParam(key string, value int) params {
	if value > 0 {
		url.Values(p).Set(key, strconv.Itoa(value))
	}
	return p
}

// addTimeParam adds an RFC3339 timestamp (only if non-zero)
func (p params) addTimeParam(key string, value time.Time) params {
	if !value.IsZero() {
		url.Values(p).Set(key, value.UTC().Format(time.RFC3339))
	}
	return p
}

func (p params) values() url.Values {
	if len(p) == 0 {
		return nil
	}
	return url.Values(p)
}
