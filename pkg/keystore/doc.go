// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package keystore persists a subscriber's key ring between sessions.
//
// The package defines a unified Manager interface implemented by
// different backends:
//
//   - File-based: the key ring sealed with a passphrase-derived key
//     (PBKDF2/AES-GCM) in a single file
//   - MongoDB: the same sealed blob stored per subscriber in a
//     collection
//   - PKCS#11: private keys held in an HSM or smart card, never
//     leaving the token (build with -tags pkcs11)
//
// The client works against the Manager interface and does not know
// where the keys live.
package keystore
