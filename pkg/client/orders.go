package client

import (
	"context"
	"time"

	"github.com/sirosfoundation/go-ebics/pkg/request"
	"github.com/sirosfoundation/go-ebics/pkg/transaction"
)

// DownloadOptions narrows a download to a date range or, for FDL and
// BTD, selects the file format or business transaction.
type DownloadOptions struct {
	Start, End  *time.Time
	FileFormat  string
	CountryCode string
	BTF         *request.BTFContext
}

// Download runs a complete download transaction for the given order
// type: initialization, segment transfers and the closing receipt.
// It returns the decrypted, inflated order data.
func (c *Client) Download(ctx context.Context, ot request.OrderType, opts *DownloadOptions) ([]byte, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}

	req, err := c.newDownloadRequest(ot, opts)
	if err != nil {
		return nil, err
	}
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	// The initialization response carries the first segment.
	numSegments := resp.NumSegments
	if numSegments == 0 {
		numSegments = 1
	}
	tx := transaction.NewDownload()
	if err := tx.Begin(resp.TransactionID, numSegments); err != nil {
		return nil, err
	}
	if err := tx.Add(1, resp.OrderData); err != nil {
		return nil, err
	}
	encryptedKey := resp.EncryptedKey

	for !tx.Complete() {
		segNum := tx.NextSegment()
		segReq, err := c.factory.NewDownloadTransfer(tx.TransactionID(), segNum, segNum == numSegments)
		if err != nil {
			return nil, err
		}
		segResp, err := c.roundTrip(ctx, segReq)
		if err != nil {
			return nil, err
		}
		if err := tx.Add(segNum, segResp.OrderData); err != nil {
			return nil, err
		}
	}

	payload, err := tx.Assemble()
	if err != nil {
		return nil, err
	}
	plain, err := c.parser.Decrypt(encryptedKey, payload)
	if err != nil {
		// The payload is unusable; tell the bank to keep it available.
		c.sendReceipt(ctx, tx, false)
		return nil, err
	}

	if err := c.sendReceipt(ctx, tx, true); err != nil {
		return nil, err
	}
	c.log.InfoContext(ctx, "download complete",
		"order_type", string(ot),
		"transaction_id", tx.TransactionID(),
		"segments", numSegments,
		"bytes", len(plain))
	return plain, nil
}

func (c *Client) newDownloadRequest(ot request.OrderType, opts *DownloadOptions) (*request.Request, error) {
	now := c.now()
	switch ot {
	case request.FDL:
		return c.factory.NewFDL(now, opts.FileFormat, opts.CountryCode, opts.Start, opts.End)
	case request.BTD:
		return c.factory.NewBTD(now, opts.BTF, opts.Start, opts.End)
	default:
		return c.factory.NewDownloadInitialization(ot, &request.Context{
			DateTime:  now,
			StartDate: opts.Start,
			EndDate:   opts.End,
		})
	}
}

func (c *Client) sendReceipt(ctx context.Context, tx *transaction.Download, acknowledged bool) error {
	req, err := c.factory.NewReceipt(tx.TransactionID(), acknowledged)
	if err != nil {
		return err
	}
	if _, err := c.roundTrip(ctx, req); err != nil {
		return err
	}
	return tx.Close()
}

// Upload runs a complete upload transaction: the order data is
// signed, compressed and encrypted, announced in the initialization
// request and then transferred segment by segment. It returns the
// bank-assigned transaction id.
func (c *Client) Upload(ctx context.Context, ot request.OrderType, document []byte) (string, error) {
	txKey, err := c.svc.GenerateTransactionKey()
	if err != nil {
		return "", err
	}

	deflated, err := c.codec.Compress(document)
	if err != nil {
		return "", err
	}
	encrypted, err := c.svc.EncryptOrderData(txKey, deflated)
	if err != nil {
		return "", err
	}
	tx, err := transaction.NewUpload(encrypted)
	if err != nil {
		return "", err
	}

	req, err := c.factory.NewUploadInitialization(ot, c.now(), tx.NumSegments(), txKey, document)
	if err != nil {
		return "", err
	}
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return "", err
	}
	if err := tx.Begin(resp.TransactionID); err != nil {
		return "", err
	}

	for {
		segment, number, last, err := tx.Next()
		if err != nil {
			return "", err
		}
		segReq, err := c.factory.NewTransfer(tx.TransactionID(), segment, number, last)
		if err != nil {
			return "", err
		}
		if _, err := c.roundTrip(ctx, segReq); err != nil {
			return "", err
		}
		if last {
			break
		}
	}

	c.log.InfoContext(ctx, "upload complete",
		"order_type", string(ot),
		"transaction_id", tx.TransactionID(),
		"segments", tx.NumSegments())
	return tx.TransactionID(), nil
}

// Convenience wrappers for the common order types.

// HPD downloads the host parameters.
func (c *Client) HPD(ctx context.Context) ([]byte, error) {
	return c.Download(ctx, request.HPD, nil)
}

// HKD downloads the customer's subscriber and account data.
func (c *Client) HKD(ctx context.Context) ([]byte, error) {
	return c.Download(ctx, request.HKD, nil)
}

// HTD downloads the subscriber's own permissions and accounts.
func (c *Client) HTD(ctx context.Context) ([]byte, error) {
	return c.Download(ctx, request.HTD, nil)
}

// PTK downloads the customer protocol in plain text.
func (c *Client) PTK(ctx context.Context) ([]byte, error) {
	return c.Download(ctx, request.PTK, nil)
}

// HAA downloads the order types the subscriber may fetch.
func (c *Client) HAA(ctx context.Context) ([]byte, error) {
	return c.Download(ctx, request.HAA, nil)
}

// UploadCreditTransfer submits a pain.001 credit transfer document.
func (c *Client) UploadCreditTransfer(ctx context.Context, document []byte) (string, error) {
	return c.Upload(ctx, request.CCT, document)
}

// UploadDirectDebit submits a pain.008 direct debit document.
func (c *Client) UploadDirectDebit(ctx context.Context, document []byte) (string, error) {
	return c.Upload(ctx, request.CDD, document)
}
