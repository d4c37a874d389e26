// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package letter renders the initialization letter a subscriber signs
// and mails to their bank after INI and HIA.
//
// The letter lists each of the three user keys with its modulus,
// exponent and SHA-256 hash, formatted the way bank back offices
// expect: uppercase hex, byte pairs, sixteen pairs per line. The hash
// uses the same digest encoding the protocol generation uses on the
// wire, so the printed value matches what the bank computes from the
// uploaded key.
package letter
