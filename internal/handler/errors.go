// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

// errNoHandlersAreCreated is returned by NewHandlers when no HTTP address is
// configured. The server has nothing to listen on, so start-up fails.
var errNoHandlersAreCreated = errors.New("no handlers are created")
