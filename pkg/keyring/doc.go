// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package keyring holds the versioned key material of an EBICS
// subscriber and their bank.
//
// The EBICS key model has three roles: A (order signature), E
// (encryption) and X (authentication). A keyring owns up to six
// signatures - user A/E/X and bank E/X - each tagged with an
// independent version string such as "A006" or "X002". The slots are a
// fixed record, not a generic map, so a missing role is a compile-time
// visible condition and a runtime ErrKeyNotFound, never a silent
// substitution.
//
// The keyring is mutated only during key management exchanges
// (INI/HIA key creation, HPB bank key installation) and is read-only
// otherwise. Access during a bank key swap must be externally
// synchronized; replacing the two bank slots is atomic at the API
// level but callers racing a swap see either the old or the new pair.
package keyring
