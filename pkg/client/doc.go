// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package client is the high-level EBICS client tying the protocol
pieces together: it builds requests, posts them, validates the
responses and walks segmented transactions to completion.

A fresh subscriber goes through the key ceremony once:

	c, err := client.New(ctx, &client.Config{
	    Bank:     bank,
	    User:     user,
	    Keystore: store,
	})
	// generate and announce the user keys
	err = c.GenerateUserKeys(ctx)
	err = c.INI(ctx)
	err = c.HIA(ctx)
	// after the bank activates the subscriber, fetch the bank keys
	err = c.HPB(ctx)

From then on downloads and uploads are single calls:

	statements, err := c.Download(ctx, request.C53, &client.DownloadOptions{
	    Start: &from, End: &to,
	})
	txID, err := c.UploadCreditTransfer(ctx, painDocument)

The client persists every key ring change through the configured
keystore, so a process restart resumes where the ceremony left off.
*/
package client
