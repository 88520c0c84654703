// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package config

import (
	"fmt"
	"net/url"
)

// validateHTTPURL checks a backend endpoint. Paths are allowed since the API
// base carries /api; credentials belong in COLDWATCH_USERNAME and
// COLDWATCH_PASSWORD, never in the URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("host is required")
	case u.User != nil:
		return fmt.Errorf("must not embed user credentials")
	case u.RawQuery != "":
		return fmt.Errorf("must not contain a query string, remove ?%s", u.RawQuery)
	case u.Fragment != "":
		return fmt.Errorf("must not contain a fragment")
	}
	return nil
}
