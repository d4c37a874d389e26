package response

import (
	"errors"
	"fmt"
)

// Well-known six-digit return codes. The technical code travels in
// the mutable header, the business code in the body; both use the
// same vocabulary.
const (
	CodeOK = "000000"

	// Download postprocess codes are positive acknowledgements, not
	// failures.
	CodeDownloadPostprocessDone    = "011000"
	CodeDownloadPostprocessSkipped = "011001"
	CodeTxSegmentNumberUnderrun    = "011101"

	CodeOrderParamsIgnored = "031001"

	CodeAuthenticationFailed   = "061001"
	CodeInvalidRequestContent  = "061002"
	CodeInternalError          = "061099"
	CodeTxRecoverySync         = "061101"

	CodeInvalidOrderDataFormat = "090004"
	CodeNoDownloadDataAvailable = "090005"

	CodeInvalidUserOrUserState = "091002"
	CodeUserUnknown            = "091003"
	CodeInvalidOrderType       = "091005"
	CodeUnsupportedOrderType   = "091006"
	CodeBankPubkeyUpdateRequired = "091008"
	CodeInvalidHostID          = "091011"

	CodeTxUnknownTxid      = "091101"
	CodeTxAbort            = "091102"
	CodeTxMessageReplay    = "091103"
	CodeTxSegmentNumberExceeded = "091104"

	CodeOrderIDUnknown       = "091114"
	CodeOrderIDAlreadyExists = "091115"
	CodeMaxOrderDataSizeExceeded = "091117"
	CodeMaxTransactionsExceeded  = "091119"
	CodePartnerIDMismatch        = "091120"

	CodeKeymgmtUnsupportedVersionSignature      = "091200"
	CodeKeymgmtUnsupportedVersionAuthentication = "091201"
	CodeKeymgmtUnsupportedVersionEncryption     = "091202"
	CodeKeymgmtNoX509Support                    = "091207"
	CodeX509CertificateExpired                  = "091208"

	CodeSignatureVerificationFailed  = "091301"
	CodeAccountAuthorisationFailed   = "091302"
	CodeAmountCheckFailed            = "091303"
	CodeSignerUnknown                = "091304"
)

var codeNames = map[string]string{
	CodeOK:                         "EBICS_OK",
	CodeDownloadPostprocessDone:    "EBICS_DOWNLOAD_POSTPROCESS_DONE",
	CodeDownloadPostprocessSkipped: "EBICS_DOWNLOAD_POSTPROCESS_SKIPPED",
	CodeTxSegmentNumberUnderrun:    "EBICS_TX_SEGMENT_NUMBER_UNDERRUN",
	CodeOrderParamsIgnored:         "EBICS_ORDER_PARAMS_IGNORED",
	CodeAuthenticationFailed:       "EBICS_AUTHENTICATION_FAILED",
	CodeInvalidRequestContent:      "EBICS_INVALID_REQUEST_CONTENT",
	CodeInternalError:              "EBICS_INTERNAL_ERROR",
	CodeTxRecoverySync:             "EBICS_TX_RECOVERY_SYNC",
	CodeInvalidOrderDataFormat:     "EBICS_INVALID_ORDER_DATA_FORMAT",
	CodeNoDownloadDataAvailable:    "EBICS_NO_DOWNLOAD_DATA_AVAILABLE",
	CodeInvalidUserOrUserState:     "EBICS_INVALID_USER_OR_USER_STATE",
	CodeUserUnknown:                "EBICS_USER_UNKNOWN",
	CodeInvalidOrderType:           "EBICS_INVALID_ORDER_TYPE",
	CodeUnsupportedOrderType:       "EBICS_UNSUPPORTED_ORDER_TYPE",
	CodeBankPubkeyUpdateRequired:   "EBICS_BANK_PUBKEY_UPDATE_REQUIRED",
	CodeInvalidHostID:              "EBICS_INVALID_HOST_ID",
	CodeTxUnknownTxid:              "EBICS_TX_UNKNOWN_TXID",
	CodeTxAbort:                    "EBICS_TX_ABORT",
	CodeTxMessageReplay:            "EBICS_TX_MESSAGE_REPLAY",
	CodeTxSegmentNumberExceeded:    "EBICS_TX_SEGMENT_NUMBER_EXCEEDED",
	CodeOrderIDUnknown:             "EBICS_ORDERID_UNKNOWN",
	CodeOrderIDAlreadyExists:       "EBICS_ORDERID_ALREADY_EXISTS",
	CodeMaxOrderDataSizeExceeded:   "EBICS_MAX_ORDER_DATA_SIZE_EXCEEDED",
	CodeMaxTransactionsExceeded:    "EBICS_MAX_TRANSACTIONS_EXCEEDED",
	CodePartnerIDMismatch:          "EBICS_PARTNER_ID_MISMATCH",
	CodeKeymgmtUnsupportedVersionSignature:      "EBICS_KEYMGMT_UNSUPPORTED_VERSION_SIGNATURE",
	CodeKeymgmtUnsupportedVersionAuthentication: "EBICS_KEYMGMT_UNSUPPORTED_VERSION_AUTHENTICATION",
	CodeKeymgmtUnsupportedVersionEncryption:     "EBICS_KEYMGMT_UNSUPPORTED_VERSION_ENCRYPTION",
	CodeKeymgmtNoX509Support:                    "EBICS_KEYMGMT_NO_X509_SUPPORT",
	CodeX509CertificateExpired:                  "EBICS_X509_CERTIFICATE_EXPIRED",
	CodeSignatureVerificationFailed:             "EBICS_SIGNATURE_VERIFICATION_FAILED",
	CodeAccountAuthorisationFailed:              "EBICS_ACCOUNT_AUTHORISATION_FAILED",
	CodeAmountCheckFailed:                       "EBICS_AMOUNT_CHECK_FAILED",
	CodeSignerUnknown:                           "EBICS_SIGNER_UNKNOWN",
}

// CodeName returns the symbolic name of a return code, or the code
// itself when unknown.
func CodeName(code string) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return code
}

// BankError is a non-zero return code reported by the bank host.
type BankError struct {
	// Code is the six-digit return code.
	Code string
	// Report is the human-readable report text, if any.
	Report string
}

func (e *BankError) Error() string {
	name := CodeName(e.Code)
	if e.Report != "" {
		return fmt.Sprintf("ebics: bank returned %s (%s): %s", e.Code, name, e.Report)
	}
	return fmt.Sprintf("ebics: bank returned %s (%s)", e.Code, name)
}

// IsCode reports whether err is a *BankError carrying the given
// return code.
func IsCode(err error, code string) bool {
	var be *BankError
	return errors.As(err, &be) && be.Code == code
}

// checkCode converts a return code into an error. The postprocess
// acknowledgements count as success.
func checkCode(code, report string) error {
	switch code {
	case "", CodeOK, CodeDownloadPostprocessDone, CodeDownloadPostprocessSkipped:
		return nil
	}
	return &BankError{Code: code, Report: report}
}
