package request

import (
	"fmt"
	"time"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/compression"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// OrderType is the short code identifying the business operation of a
// request.
type OrderType string

const (
	// Key management.
	INI OrderType = "INI"
	HIA OrderType = "HIA"
	HPB OrderType = "HPB"

	// Downloads.
	HPD OrderType = "HPD"
	HKD OrderType = "HKD"
	PTK OrderType = "PTK"
	HTD OrderType = "HTD"
	FDL OrderType = "FDL"
	HAA OrderType = "HAA"
	BTD OrderType = "BTD"
	VMK OrderType = "VMK"
	STA OrderType = "STA"
	C52 OrderType = "C52"
	C53 OrderType = "C53"
	Z53 OrderType = "Z53"
	Z54 OrderType = "Z54"

	// Uploads.
	CCT OrderType = "CCT"
	CDD OrderType = "CDD"
)

// Generation 2.5 order attributes.
const (
	attrDZNNN = "DZNNN" // key management upload, no signature
	attrDZHNN = "DZHNN" // download
	attrOZHNN = "OZHNN" // upload with order signature
)

type orderKind int

const (
	kindKeyManagement orderKind = iota
	kindDownload
	kindUpload
)

type paramsKind int

const (
	paramsNone paramsKind = iota
	paramsStandard
	paramsFDL
	paramsBTD
)

// orderSpec is one row of the dispatch table: everything order-type
// specific the shared assembly routine needs.
type orderSpec struct {
	kind      orderKind
	container containerKind
	attribute string
	params    paramsKind
}

var orders = map[OrderType]orderSpec{
	INI: {kind: kindKeyManagement, container: containerUnsecured, attribute: attrDZNNN, params: paramsNone},
	HIA: {kind: kindKeyManagement, container: containerUnsecured, attribute: attrDZNNN, params: paramsNone},
	HPB: {kind: kindKeyManagement, container: containerNoPubKeyDigests, attribute: attrDZHNN, params: paramsNone},

	HPD: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	HKD: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	PTK: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	HTD: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	HAA: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	FDL: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsFDL},
	BTD: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsBTD},
	VMK: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	STA: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	C52: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	C53: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	Z53: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},
	Z54: {kind: kindDownload, container: containerSecured, attribute: attrDZHNN, params: paramsStandard},

	CCT: {kind: kindUpload, container: containerSecured, attribute: attrOZHNN, params: paramsStandard},
	CDD: {kind: kindUpload, container: containerSecured, attribute: attrOZHNN, params: paramsStandard},
}

// Product identifies the client software in the static header.
type Product struct {
	Name     string
	Language string
}

var defaultProduct = Product{Name: "go-ebics client", Language: "de"}

// Factory builds requests for one bank/user/keyring triple. The
// protocol generation strategy and digest resolver are fixed at
// construction; an unsupported version fails here, not per request.
type Factory struct {
	bank ebics.Bank
	user ebics.User
	keys *keyring.KeyRing

	svc      crypto.Service
	resolver crypto.DigestResolver
	codec    *compression.Codec
	details  detailsStrategy
	product  Product

	orderData *OrderDataHandler
	userSig   *UserSignatureHandler
	authSig   *AuthSignatureHandler
}

// Option configures a Factory.
type Option func(*Factory)

// WithProduct overrides the product identifier/language pair.
func WithProduct(p Product) Option {
	return func(f *Factory) { f.product = p }
}

// NewFactory creates a request factory for the bank's protocol
// version.
func NewFactory(bank ebics.Bank, user ebics.User, keys *keyring.KeyRing, opts ...Option) (*Factory, error) {
	gen, err := bank.Version.Generation()
	if err != nil {
		return nil, err
	}
	resolver, err := crypto.NewDigestResolver(bank.Version)
	if err != nil {
		return nil, err
	}

	f := &Factory{
		bank:     bank,
		user:     user,
		keys:     keys,
		resolver: resolver,
		codec:    compression.NewCodec(),
		product:  defaultProduct,
	}
	if gen == ebics.Gen30 {
		f.details = details30{}
	} else {
		f.details = details25{}
	}
	for _, opt := range opts {
		opt(f)
	}
	f.orderData = NewOrderDataHandler(bank, user, keys)
	f.userSig = NewUserSignatureHandler(bank, user, keys)
	f.authSig = NewAuthSignatureHandler(keys)
	return f, nil
}

// NewHEV builds the version handshake request. It carries only the
// host id and is never signed.
func (f *Factory) NewHEV() (*Request, error) {
	req, root := newContainer(f.bank.Version, containerHEV)
	root.CreateElement("HostID").SetText(f.bank.HostID)
	return req, nil
}

// NewINI builds the signature key upload. The order data embeds the
// user's A key; the container is unsecured and unsigned.
func (f *Factory) NewINI(sigA *keyring.Signature, now time.Time) (*Request, error) {
	orderData, err := f.orderData.BuildINI(sigA, now)
	if err != nil {
		return nil, err
	}
	return f.newKeyManagementUpload(INI, orderData)
}

// NewHIA builds the authentication and encryption key upload.
func (f *Factory) NewHIA(sigE, sigX *keyring.Signature, now time.Time) (*Request, error) {
	orderData, err := f.orderData.BuildHIA(sigE, sigX, now)
	if err != nil {
		return nil, err
	}
	return f.newKeyManagementUpload(HIA, orderData)
}

func (f *Factory) newKeyManagementUpload(ot OrderType, orderData []byte) (*Request, error) {
	spec := orders[ot]
	deflated, err := f.codec.Compress(orderData)
	if err != nil {
		return nil, err
	}

	req, root := newContainer(f.bank.Version, spec.container)
	var detailsErr error
	addHeader(root, func(h *HeaderBuilder) {
		h.Static(func(s *StaticBuilder) {
			s.HostID(f.bank.HostID).
				PartnerID(f.user.PartnerID).
				UserID(f.user.UserID).
				Product(f.product.Name, f.product.Language).
				OrderDetails(func(od *OrderDetailsBuilder) {
					detailsErr = f.details.apply(od, ot, spec, &Context{})
				}).
				SecurityMedium(SecurityMedium0000)
		}).Mutable(nil)
	})
	if detailsErr != nil {
		return nil, detailsErr
	}
	addBody(root, func(b *BodyBuilder) {
		b.DataTransfer(func(dt *DataTransferBuilder) {
			dt.OrderData(deflated)
		})
	})
	return req, nil
}

// NewHPB builds the bank key download. The container is secured and
// signed but carries no bank key digests: the bank keys are exactly
// what is being fetched.
func (f *Factory) NewHPB(now time.Time) (*Request, error) {
	spec := orders[HPB]
	nonce, err := f.svc.GenerateNonce()
	if err != nil {
		return nil, err
	}

	req, root := newContainer(f.bank.Version, spec.container)
	var detailsErr error
	addHeader(root, func(h *HeaderBuilder) {
		h.Static(func(s *StaticBuilder) {
			s.HostID(f.bank.HostID).
				Nonce(nonce).
				Timestamp(now).
				PartnerID(f.user.PartnerID).
				UserID(f.user.UserID).
				Product(f.product.Name, f.product.Language).
				OrderDetails(func(od *OrderDetailsBuilder) {
					detailsErr = f.details.apply(od, HPB, spec, &Context{})
				}).
				SecurityMedium(SecurityMedium0000)
		}).Mutable(nil)
	})
	if detailsErr != nil {
		return nil, detailsErr
	}
	addBody(root, nil)

	if err := f.authSig.Sign(req.Document()); err != nil {
		return nil, err
	}
	return req, nil
}

// Download entry points. Each populates the context the dispatch
// table row requires and hands off to the shared initialization
// routine.

func (f *Factory) NewHPD(now time.Time) (*Request, error) { return f.newDownload(HPD, &Context{DateTime: now}) }
func (f *Factory) NewHKD(now time.Time) (*Request, error) { return f.newDownload(HKD, &Context{DateTime: now}) }
func (f *Factory) NewPTK(now time.Time) (*Request, error) { return f.newDownload(PTK, &Context{DateTime: now}) }
func (f *Factory) NewHTD(now time.Time) (*Request, error) { return f.newDownload(HTD, &Context{DateTime: now}) }
func (f *Factory) NewHAA(now time.Time) (*Request, error) { return f.newDownload(HAA, &Context{DateTime: now}) }

func (f *Factory) NewVMK(now time.Time, start, end *time.Time) (*Request, error) {
	return f.newDownload(VMK, &Context{DateTime: now, StartDate: start, EndDate: end})
}

func (f *Factory) NewSTA(now time.Time, start, end *time.Time) (*Request, error) {
	return f.newDownload(STA, &Context{DateTime: now, StartDate: start, EndDate: end})
}

func (f *Factory) NewC52(now time.Time, start, end *time.Time) (*Request, error) {
	return f.newDownload(C52, &Context{DateTime: now, StartDate: start, EndDate: end})
}

func (f *Factory) NewC53(now time.Time, start, end *time.Time) (*Request, error) {
	return f.newDownload(C53, &Context{DateTime: now, StartDate: start, EndDate: end})
}

func (f *Factory) NewZ53(now time.Time, start, end *time.Time) (*Request, error) {
	return f.newDownload(Z53, &Context{DateTime: now, StartDate: start, EndDate: end})
}

func (f *Factory) NewZ54(now time.Time, start, end *time.Time) (*Request, error) {
	return f.newDownload(Z54, &Context{DateTime: now, StartDate: start, EndDate: end})
}

// NewFDL builds a file download request for a bank-specific file
// format.
func (f *Factory) NewFDL(now time.Time, fileFormat, countryCode string, start, end *time.Time) (*Request, error) {
	if fileFormat == "" {
		return nil, fmt.Errorf("%w: FDL requires a file format", ebics.ErrConfiguration)
	}
	return f.newDownload(FDL, &Context{
		DateTime:    now,
		FileFormat:  fileFormat,
		CountryCode: countryCode,
		StartDate:   start,
		EndDate:     end,
	})
}

// NewBTD builds a generation 3.0 business transaction download.
func (f *Factory) NewBTD(now time.Time, btf *BTFContext, start, end *time.Time) (*Request, error) {
	if btf == nil {
		return nil, fmt.Errorf("%w: BTD requires a BTF descriptor", ebics.ErrConfiguration)
	}
	return f.newDownload(BTD, &Context{DateTime: now, BTF: btf, StartDate: start, EndDate: end})
}

// NewDownloadInitialization builds the initialization request for any
// download order type in the dispatch table.
func (f *Factory) NewDownloadInitialization(ot OrderType, ctx *Context) (*Request, error) {
	spec, ok := orders[ot]
	if !ok || spec.kind != kindDownload {
		return nil, fmt.Errorf("%w: %q is not a download order type", ebics.ErrConfiguration, string(ot))
	}
	return f.newDownload(ot, ctx)
}

func (f *Factory) newDownload(ot OrderType, ctx *Context) (*Request, error) {
	spec := orders[ot]
	return f.newInitialization(ot, spec, ctx, nil)
}

// NewCCT builds a credit transfer upload initialization.
func (f *Factory) NewCCT(now time.Time, numSegments int, transactionKey, orderData []byte) (*Request, error) {
	return f.newUpload(CCT, now, numSegments, transactionKey, orderData)
}

// NewCDD builds a direct debit upload initialization.
func (f *Factory) NewCDD(now time.Time, numSegments int, transactionKey, orderData []byte) (*Request, error) {
	return f.newUpload(CDD, now, numSegments, transactionKey, orderData)
}

// NewUploadInitialization builds the initialization request for any
// upload order type in the dispatch table.
func (f *Factory) NewUploadInitialization(ot OrderType, now time.Time, numSegments int, transactionKey, orderData []byte) (*Request, error) {
	spec, ok := orders[ot]
	if !ok || spec.kind != kindUpload {
		return nil, fmt.Errorf("%w: %q is not an upload order type", ebics.ErrConfiguration, string(ot))
	}
	return f.newUpload(ot, now, numSegments, transactionKey, orderData)
}

func (f *Factory) newUpload(ot OrderType, now time.Time, numSegments int, transactionKey, orderData []byte) (*Request, error) {
	spec := orders[ot]
	if numSegments < 1 {
		return nil, fmt.Errorf("%w: upload needs at least one segment", ebics.ErrConfiguration)
	}
	if len(transactionKey) != crypto.TransactionKeySize {
		return nil, fmt.Errorf("%w: transaction key must be %d bytes", ebics.ErrConfiguration, crypto.TransactionKeySize)
	}

	// The initialization body carries the user signature over the
	// order data, not the order data itself; the payload follows in
	// transfer segments.
	signatureDoc, err := f.userSig.Build(orderData)
	if err != nil {
		return nil, err
	}
	deflated, err := f.codec.Compress(signatureDoc)
	if err != nil {
		return nil, err
	}
	encryptedSig, err := f.svc.EncryptOrderData(transactionKey, deflated)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		DateTime:       now,
		NumSegments:    numSegments,
		TransactionKey: transactionKey,
		SignatureData:  encryptedSig,
	}
	return f.newInitialization(ot, spec, ctx, ctx.SignatureData)
}

// newInitialization is the shared assembly routine behind every
// secured initialization request.
func (f *Factory) newInitialization(ot OrderType, spec orderSpec, ctx *Context, signatureData []byte) (*Request, error) {
	bankX, err := f.keys.BankSignatureX()
	if err != nil {
		return nil, err
	}
	bankE, err := f.keys.BankSignatureE()
	if err != nil {
		return nil, err
	}
	digestX, err := f.resolver.Digest(bankX)
	if err != nil {
		return nil, err
	}
	digestE, err := f.resolver.Digest(bankE)
	if err != nil {
		return nil, err
	}
	nonce, err := f.svc.GenerateNonce()
	if err != nil {
		return nil, err
	}

	var wrappedKey []byte
	if spec.kind == kindUpload {
		wrappedKey, err = f.svc.WrapTransactionKey(bankE.PublicKey, ctx.TransactionKey, f.keyWrapScheme())
		if err != nil {
			return nil, err
		}
	}

	req, root := newContainer(f.bank.Version, spec.container)
	var detailsErr error
	addHeader(root, func(h *HeaderBuilder) {
		h.Static(func(s *StaticBuilder) {
			s.HostID(f.bank.HostID).
				Nonce(nonce).
				Timestamp(ctx.DateTime).
				PartnerID(f.user.PartnerID).
				UserID(f.user.UserID).
				Product(f.product.Name, f.product.Language).
				OrderDetails(func(od *OrderDetailsBuilder) {
					detailsErr = f.details.apply(od, ot, spec, ctx)
				}).
				BankPubKeyDigests(bankX.Version, digestX, bankE.Version, digestE).
				SecurityMedium(SecurityMedium0000)
			if spec.kind == kindUpload {
				s.NumSegments(ctx.NumSegments)
			}
		}).Mutable(func(m *MutableBuilder) {
			m.TransactionPhase(PhaseInitialization)
		})
	})
	if detailsErr != nil {
		return nil, detailsErr
	}

	if spec.kind == kindUpload {
		addBody(root, func(b *BodyBuilder) {
			b.DataTransfer(func(dt *DataTransferBuilder) {
				dt.DataEncryptionInfo(bankE.Version, digestE, wrappedKey).
					SignatureData(signatureData)
			})
		})
	} else {
		addBody(root, nil)
	}

	if err := f.authSig.Sign(req.Document()); err != nil {
		return nil, err
	}
	return req, nil
}

// NewTransfer builds a transfer phase request carrying one encrypted
// payload segment. The transaction id must be the one the bank
// assigned at initialization.
func (f *Factory) NewTransfer(transactionID string, segment []byte, segmentNumber int, last bool) (*Request, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transfer without transaction id", ebics.ErrInvalidRequest)
	}
	if segmentNumber < 1 {
		return nil, fmt.Errorf("%w: segment numbers are 1-based", ebics.ErrInvalidRequest)
	}

	req, root := newContainer(f.bank.Version, containerSecured)
	addHeader(root, func(h *HeaderBuilder) {
		h.Static(func(s *StaticBuilder) {
			s.HostID(f.bank.HostID).TransactionID(transactionID)
		}).Mutable(func(m *MutableBuilder) {
			m.TransactionPhase(PhaseTransfer).SegmentNumber(segmentNumber, last)
		})
	})
	addBody(root, func(b *BodyBuilder) {
		b.DataTransfer(func(dt *DataTransferBuilder) {
			dt.OrderData(segment)
		})
	})

	if err := f.authSig.Sign(req.Document()); err != nil {
		return nil, err
	}
	return req, nil
}

// NewDownloadTransfer builds the transfer phase request asking the
// bank for one download segment. It carries no payload of its own.
func (f *Factory) NewDownloadTransfer(transactionID string, segmentNumber int, last bool) (*Request, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transfer without transaction id", ebics.ErrInvalidRequest)
	}
	if segmentNumber < 1 {
		return nil, fmt.Errorf("%w: segment numbers are 1-based", ebics.ErrInvalidRequest)
	}

	req, root := newContainer(f.bank.Version, containerSecured)
	addHeader(root, func(h *HeaderBuilder) {
		h.Static(func(s *StaticBuilder) {
			s.HostID(f.bank.HostID).TransactionID(transactionID)
		}).Mutable(func(m *MutableBuilder) {
			m.TransactionPhase(PhaseTransfer).SegmentNumber(segmentNumber, last)
		})
	})
	addBody(root, nil)

	if err := f.authSig.Sign(req.Document()); err != nil {
		return nil, err
	}
	return req, nil
}

// NewReceipt builds the receipt phase request closing a download.
func (f *Factory) NewReceipt(transactionID string, acknowledged bool) (*Request, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: receipt without transaction id", ebics.ErrInvalidRequest)
	}
	code := ReceiptCodePositive
	if !acknowledged {
		code = ReceiptCodeNegative
	}

	req, root := newContainer(f.bank.Version, containerSecured)
	addHeader(root, func(h *HeaderBuilder) {
		h.Static(func(s *StaticBuilder) {
			s.HostID(f.bank.HostID).TransactionID(transactionID)
		}).Mutable(func(m *MutableBuilder) {
			m.TransactionPhase(PhaseReceipt)
		})
	})
	addBody(root, func(b *BodyBuilder) {
		b.TransferReceipt(code)
	})

	if err := f.authSig.Sign(req.Document()); err != nil {
		return nil, err
	}
	return req, nil
}

// keyWrapScheme returns the transaction key padding for the bank's
// generation. Generation 2.5 hosts require PKCS#1 v1.5; 3.0 hosts
// accept the same scheme, which remains the interoperable default.
func (f *Factory) keyWrapScheme() crypto.KeyWrapScheme {
	return crypto.WrapPKCS1v15
}
