// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package crypto implements the cryptographic primitives of the EBICS
// protocol: RSA key generation, order and envelope signing for the
// A005/A006/X002 signature versions, transaction key wrapping for
// E002, the AES-128-CBC order data cipher, SHA-256 digesting, XML
// canonicalization and the version-dependent public key digest
// resolvers.
//
// All operations are synchronous and CPU bound; the package performs
// no I/O and keeps no state.
package crypto
