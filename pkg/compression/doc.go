// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression provides ZLIB order data compression for EBICS.

Every OrderData payload on the wire - key management documents,
signature blocks and business payloads alike - is DEFLATE compressed
in the zlib framing (RFC 1950) before encryption and base64 encoding,
and inflated after decryption on the receive path.

Compress order data before embedding:

	codec := compression.NewCodec()
	deflated, err := codec.Compress(orderData)

Decompress received order data:

	inflated, err := codec.Decompress(deflated)
*/
package compression
