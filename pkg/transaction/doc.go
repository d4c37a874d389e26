// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package transaction tracks the state of a segmented protocol
// transaction across its initialization, transfer and receipt phases.
//
// Uploads split the encrypted order data into fixed-size segments and
// hand them out in order; downloads collect segments as the bank
// delivers them and reassemble the payload once complete. Both
// enforce phase sequencing: a segment cannot be exchanged before the
// bank has assigned a transaction id, and a finished transaction
// refuses further traffic.
package transaction
