// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

// Package ctclient retrieves entries from RFC6962 Certificate Transparency logs
package ctclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Upper bound on the size of a response body.  A get-entries response for
// 1000 entries is typically a few megabytes.
const maxResponseSize = 64 << 20

// Create an HTTP client suitable for communicating with CT logs.  dialContext, if non-nil, is used for dialing.
func NewHTTPClient(dialContext func(context.Context, string, string) (net.Conn, error)) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			MaxIdleConnsPerHost:   10,
			MaxIdleConns:          100,
			IdleConnTimeout:       15 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSClientConfig: &tls.Config{
				// Entries are authenticated by the Merkle Tree, not by TLS, and
				// some logs use certificates that are not widely trusted.
				InsecureSkipVerify: true,
			},
			DialContext: dialContext,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return errors.New("redirects not followed")
		},
		Timeout: 60 * time.Second,
	}
}

var defaultHTTPClient = NewHTTPClient(nil)

// get waits for limiter (if non-nil) before issuing the request.
func get(ctx context.Context, httpClient *http.Client, limiter *rate.Limiter, fullURL string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", "") // Don't send a User-Agent to make life harder for malicious logs

	if httpClient == nil {
		httpClient = defaultHTTPClient
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize+1))
	response.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("Get %q: error reading response: %w", fullURL, err)
	}
	if len(responseBody) > maxResponseSize {
		return nil, fmt.Errorf("Get %q: response exceeds %d bytes", fullURL, maxResponseSize)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Get %q: %s (%q)", fullURL, response.Status, string(responseBody))
	}

	return responseBody, nil
}

func getJSON(ctx context.Context, httpClient *http.Client, limiter *rate.Limiter, fullURL string, response any) error {
	responseBytes, err := get(ctx, httpClient, limiter, fullURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(responseBytes, response); err != nil {
		return fmt.Errorf("Get %q: error parsing response JSON: %w", fullURL, err)
	}
	return nil
}
