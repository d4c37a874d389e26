// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package response parses and validates the XML documents a bank host
// returns.
//
// Parsing is strict about ordering: the authentication signature is
// verified before any payload is touched, and the payload is only
// decrypted after the return codes have been checked. Bank-side
// failures surface as *BankError carrying the six-digit return code
// and the report text, so callers can branch on well-known codes
// without string matching.
package response
