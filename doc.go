// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package ebics implements the client side of the EBICS protocol
(Electronic Banking Internet Communication Standard) for the H003, H004
and H005 schema versions, covering both the 2.5 and 3.0 protocol
generations.

# Overview

go-ebics assembles, signs, encrypts and segments the XML request
messages a corporate client exchanges with a bank server, and verifies
and decrypts the responses. Business payload content (SEPA documents,
account reports) is treated as opaque bytes; this module is the
protocol message engine around it.

# Package Structure

	github.com/sirosfoundation/go-ebics                 - Bank/User model, protocol versions, error taxonomy
	github.com/sirosfoundation/go-ebics/pkg/keyring     - A/E/X key slots for user and bank
	github.com/sirosfoundation/go-ebics/pkg/crypto      - RSA signing, transaction key wrap, AES order data cipher, C14N
	github.com/sirosfoundation/go-ebics/pkg/request     - Request builders, order type factory, authentication signature
	github.com/sirosfoundation/go-ebics/pkg/transaction - Segmented transaction state machine
	github.com/sirosfoundation/go-ebics/pkg/response    - Response verification, decryption and reassembly
	github.com/sirosfoundation/go-ebics/pkg/transport   - HTTP delivery to the bank endpoint
	github.com/sirosfoundation/go-ebics/pkg/keystore    - Keyring persistence (file, MongoDB, PKCS#11)
	github.com/sirosfoundation/go-ebics/pkg/letter      - Initialization letter key digests
	github.com/sirosfoundation/go-ebics/pkg/client      - High level order flows

# Quick Start

	import (
	    "github.com/sirosfoundation/go-ebics"
	    "github.com/sirosfoundation/go-ebics/pkg/client"
	    "github.com/sirosfoundation/go-ebics/pkg/keystore"
	    "github.com/sirosfoundation/go-ebics/pkg/request"
	)

	bank := ebics.Bank{HostID: "MYHOST", URL: "https://bank.example.com/ebics", Version: ebics.H004}
	user := ebics.User{PartnerID: "PARTNER1", UserID: "USER1"}

	store, _ := keystore.NewFileManager("keyring.json", []byte(passphrase))
	c, _ := client.New(ctx, &client.Config{Bank: bank, User: user, Keystore: store})

	// Key management: generate keys, announce them, fetch the bank keys.
	_ = c.GenerateUserKeys(ctx)
	_ = c.INI(ctx)
	_ = c.HIA(ctx)
	_ = c.HPB(ctx)

	// Fetch customer data.
	data, err := c.Download(ctx, request.HTD, nil)

# Security

Every secured request carries an authentication signature (X002): the
header subtree is canonicalized, digested with SHA-256 and signed with
the user's authentication key. Upload order data is signed with the
user's signature key (A005 or A006), compressed, encrypted under a per
transaction AES key and segmented; the transaction key is wrapped with
the bank's encryption key. Responses are rejected before decryption if
their authentication signature does not verify.
*/
package ebics
