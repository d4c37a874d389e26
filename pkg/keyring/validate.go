package keyring

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"
)

// ErrCertificateRevoked is returned when a bank certificate has been
// revoked by its issuer.
var ErrCertificateRevoked = errors.New("keyring: certificate revoked")

// CertificateValidator checks bank certificates retrieved via HPB in
// certified mode. A revoked or expired bank certificate must not be
// installed into the keyring.
type CertificateValidator struct {
	httpClient *http.Client
	// StrictMode fails installation when revocation status cannot be
	// determined; otherwise an unreachable OCSP responder is tolerated.
	StrictMode bool
}

// NewCertificateValidator returns a validator with a bounded HTTP
// client for OCSP queries.
func NewCertificateValidator(timeout time.Duration) *CertificateValidator {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &CertificateValidator{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Validate checks validity period and, when an issuer chain is
// available, OCSP revocation status of a bank certificate.
func (v *CertificateValidator) Validate(ctx context.Context, cert, issuer *x509.Certificate) error {
	if cert == nil {
		return fmt.Errorf("keyring: certificate is nil")
	}
	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return fmt.Errorf("keyring: certificate outside validity period (%s - %s)",
			cert.NotBefore.Format(time.RFC3339), cert.NotAfter.Format(time.RFC3339))
	}
	if issuer == nil || len(cert.OCSPServer) == 0 {
		if v.StrictMode {
			return fmt.Errorf("keyring: revocation status undeterminable")
		}
		return nil
	}

	err := v.checkOCSP(ctx, cert, issuer)
	if err == nil || errors.Is(err, ErrCertificateRevoked) {
		return err
	}
	if v.StrictMode {
		return fmt.Errorf("keyring: OCSP check failed: %w", err)
	}
	return nil
}

func (v *CertificateValidator) checkOCSP(ctx context.Context, cert, issuer *x509.Certificate) error {
	req, err := ocsp.CreateRequest(cert, issuer, &ocsp.RequestOptions{Hash: crypto.SHA256})
	if err != nil {
		return fmt.Errorf("creating OCSP request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cert.OCSPServer[0], bytes.NewReader(req))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/ocsp-request")
	httpReq.Header.Set("Accept", "application/ocsp-response")

	httpResp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("OCSP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("OCSP server returned status %d", httpResp.StatusCode)
	}
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return err
	}

	resp, err := ocsp.ParseResponse(raw, issuer)
	if err != nil {
		return fmt.Errorf("parsing OCSP response: %w", err)
	}
	switch resp.Status {
	case ocsp.Good:
		return nil
	case ocsp.Revoked:
		return ErrCertificateRevoked
	default:
		return fmt.Errorf("OCSP status unknown")
	}
}
