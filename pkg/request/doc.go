// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package request assembles EBICS protocol request documents.

A request is one of four container shapes: the HEV version handshake,
the unsecured container for INI/HIA key uploads, the secured container
without bank key digests for HPB, and the fully secured container used
by every other order type and by transfer and receipt phases.

The Factory is the single place order-type knowledge lives: a dispatch
table maps each order type to its container shape, generation 2.5
order attribute and parameter layout. The order detail vocabulary
differs between generations (fixed order type codes vs the H005 BTF
descriptor), so a detail strategy is chosen once from the bank's
protocol version when the factory is constructed.

Element order follows the published XSDs exactly; builders append in
schema order and callers never reorder nodes. After the body is fully
populated, secured containers receive an authentication signature over
every node carrying authenticate="true".
*/
package request
