// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package control

import "errors"

// ErrInvalidTransition means a transition was attempted that the
// state machine does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")
